package cli

import (
	"io"

	"github.com/ofizant/conciliacion/internal/infrastructure/config"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// RunListRuns prints the most recent stored runs.
func RunListRuns(cfg *config.Config, flags *RunsFlags, w io.Writer) error {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return listRuns(store, flags.Limit, w)
}

func listRuns(repo storage.RunRepository, limit int, w io.Writer) error {
	runs, err := repo.ListRuns(limit)
	if err != nil {
		return err
	}
	PrintRuns(w, runs)
	return nil
}
