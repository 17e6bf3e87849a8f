package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ofizant/conciliacion/internal/cli"
	"github.com/ofizant/conciliacion/internal/infrastructure/config"
	"github.com/ofizant/conciliacion/internal/infrastructure/logging"
)

// CLI represents the main CLI application
type CLI struct {
	configFile string
	verbose    bool
}

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	app := &CLI{}

	// Global flags
	flag.StringVar(&app.configFile, "config", "", "Configuration file path")
	flag.BoolVar(&app.verbose, "verbose", false, "Enable verbose logging")
	flag.Usage = printUsage
	flag.Parse()

	// Get subcommand
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	// Load configuration
	bootLogger := logging.NewLogger(config.LoggingConfig{Level: "info", Format: "text"})
	cfg := loadConfig(app.configFile, bootLogger)
	if app.verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	// Route to subcommand
	var err error
	switch subcommand {
	case "run":
		err = handleRunCommand(subArgs, cfg)
	case "serve":
		err = handleServeCommand(subArgs, cfg)
	case "runs":
		err = handleRunsCommand(subArgs, cfg)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func handleRunCommand(args []string, cfg *config.Config) error {
	flags, err := cli.ParseRunFlags(args, cfg.Reconciliation, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "run")
	_, err = cli.RunReconcile(ctx, cfg, flags, logger, os.Stdout)
	return err
}

func handleServeCommand(args []string, cfg *config.Config) error {
	flags, err := cli.ParseServeFlags(args, cfg.API.Port, os.Stderr)
	if err != nil {
		return err
	}
	return cli.RunServe(cfg, flags)
}

func handleRunsCommand(args []string, cfg *config.Config) error {
	flags, err := cli.ParseRunsFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	return cli.RunListRuns(cfg, flags, os.Stdout)
}

func printUsage() {
	fmt.Println("Conciliación bancaria")
	fmt.Println("=====================")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  conciliar [global options] <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run     Reconcile a ledger (Mayor) against a bank statement (Banco)")
	fmt.Println("          -ledger FILE -statement FILE [-previous FILE] [-out FILE.xlsx|FILE.csv]")
	fmt.Println("          [-tolerance N] [-max-group N] [-direction MAYOR→BANCO|BANCO→MAYOR]")
	fmt.Println("          [-amount-tolerance X] [-no-store]")
	fmt.Println("  serve   Start the HTTP API  [-port N] [-verbose]")
	fmt.Println("  runs    List stored runs    [-limit N]")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  -config string      Configuration file path")
	fmt.Println("  -verbose            Enable verbose logging")
}

func loadConfig(configFile string, logger *slog.Logger) *config.Config {
	if configFile == "" {
		// Try to find config file
		candidates := []string{"config.yaml", "config.yml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
				break
			}
		}
	}

	if configFile == "" {
		logger.Debug("no config file found, using environment variables")
		return config.LoadFromEnv()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	return cfg
}
