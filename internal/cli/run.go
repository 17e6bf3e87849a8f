package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ofizant/conciliacion/internal/adapters/sheets"
	"github.com/ofizant/conciliacion/internal/application/reconcile"
	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/infrastructure/config"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// RunReconcile reads the input files, reconciles them, prints the summary to
// w and writes the result file when -out is set.
func RunReconcile(ctx context.Context, cfg *config.Config, flags *RunFlags, logger *slog.Logger, w io.Writer) (*reconcile.Output, error) {
	params, err := flags.MatcherConfig()
	if err != nil {
		return nil, err
	}

	req := reconcile.Request{
		StatementName: filepath.Base(flags.Statement),
		Config:        params,
		Store:         !flags.NoStore,
	}
	if req.Statement, err = sheets.ReadFile(flags.Statement); err != nil {
		return nil, err
	}
	if flags.Previous != "" {
		if req.Previous, err = sheets.ReadFile(flags.Previous); err != nil {
			return nil, err
		}
		req.LedgerName = filepath.Base(flags.Previous)
	} else {
		if req.Ledger, err = sheets.ReadFile(flags.Ledger); err != nil {
			return nil, err
		}
		req.LedgerName = filepath.Base(flags.Ledger)
	}

	var repo storage.Repository
	if req.Store {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		repo = store
	}

	out, err := reconcile.NewService(repo, logger).Run(ctx, req)
	if err != nil {
		return nil, err
	}

	PrintSummary(w, out)

	if flags.Out != "" {
		if err := writeResult(flags.Out, out); err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "Resultado: %s\n", flags.Out)
	}
	return out, nil
}

// writeResult writes the exported detail table. XLSX files also carry the
// summary sheet.
func writeResult(path string, out *reconcile.Output) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	detail := assembler.Finalize(out.Detail)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return sheets.WriteCSV(f, detail)
	}
	return sheets.WriteWorkbook(f, detail, out.Summary.Table())
}
