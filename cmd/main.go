package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nbrowse/nbrowse"
	"github.com/nbrowse/nbrowse/backends"
	"github.com/nbrowse/nbrowse/config"
	"github.com/nbrowse/nbrowse/internal/shell"
	"github.com/nbrowse/nbrowse/internal/util"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		noColor    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (yaml or json)")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored prompt and listing output")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Parse()

	// Initialize logger
	if verbose < 1 {
		verbose = 1
	}
	if verbose > 5 {
		verbose = 5
	}
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	logLvl := logLvls[verbose-1]
	util.InitializeLogger(logLvl)
	logger := util.GetLogger("main")

	start := flag.Arg(0)
	if start == "" {
		start = "."
	}

	// Load config
	cfg := config.NewDefaultConfig()
	if configPath != "" {
		loaded, err := config.NewConfigFromFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
		cfg = loaded
	}
	if noColor {
		cfg.Color = false
	}

	// Register all built-in container backends
	backends.RegisterBuiltins()

	sess, err := nbrowse.New(cfg, start)
	if err != nil {
		logger.Fatal().Err(err).Str("start", start).Msg("Failed to create session")
	}
	logger.Debug().Str("session", sess.ID()).Str("start", start).Msg("Browser session initialized")

	// Clean up temp files even on an interrupt. Inside a line-editing
	// session Ctrl+C never raises SIGINT (the terminal is raw and the shell
	// aborts the current input instead); this handler covers signals sent
	// from outside and the plain-terminal fallback.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-signalChan
		logger.Info().Str("signal", sig.String()).Msg("Received signal, cleaning up")
		sess.Cleanup()
		os.Exit(0)
	}()

	shell.New(sess, cfg, os.Stdin, os.Stdout).Run()
	sess.Cleanup()
}
