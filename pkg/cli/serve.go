package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd/pkg/config"
	"github.com/getmockd/mockd/pkg/logging"
	"github.com/getmockd/mockd/pkg/persistence"
	"github.com/getmockd/mockd/pkg/server"
	"github.com/getmockd/mockd/pkg/store"
)

// shutdownTimeout bounds how long serve waits for in-flight handlers to
// drain before exiting anyway.
const shutdownTimeout = 10 * time.Second

// watchInterval is the initialization-file watcher's poll period; spec §4.4
// calls "≈1 s" sufficient.
const watchInterval = 1 * time.Second

// serveFlags mirrors config.Config, letting a flag override an otherwise
// env/file-resolved value. Zero values mean "not set on the command line".
type serveFlags struct {
	configFile                string
	host                      string
	port                      int
	logLevel                  string
	maxHeaderSizeKB           int
	initializationJSONPath    string
	watchInitializationJSON   bool
	persistExpectations       bool
	persistExpectationsSet    bool
	persistedExpectationsPath string
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(&serveFlagVals)
	},
}

func initServeCmd() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().StringVar(&f.configFile, "config", "", "path to a YAML configuration file")
	serveCmd.Flags().StringVar(&f.host, "host", "", "bind address (default 0.0.0.0)")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 0, "listen port (default 1080)")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "", "error, warn, info, debug")
	serveCmd.Flags().IntVar(&f.maxHeaderSizeKB, "max-header-size-kb", 0, "request header size cap in KB")
	serveCmd.Flags().StringVar(&f.initializationJSONPath, "initialization-json-path", "", "seed expectations from this file at startup")
	serveCmd.Flags().BoolVar(&f.watchInitializationJSON, "watch-initialization-json", false, "poll the initialization file for changes")
	serveCmd.Flags().StringVar(&f.persistedExpectationsPath, "persisted-expectations-path", "", "path expectations are saved to and loaded from")
	serveCmd.Flags().Func("persist-expectations", "toggle persistence to disk (default true)", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		f.persistExpectations = b
		f.persistExpectationsSet = true
		return nil
	})
}

// resolveConfig loads config.Default, overlaid by an optional file and the
// environment (config.Load's existing layering), then overlaid once more by
// whatever flags were actually set on the command line.
func resolveConfig(f *serveFlags) (config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return config.Config{}, err
	}

	if f.host != "" {
		cfg.Host = f.host
	}
	if f.port != 0 {
		cfg.Port = f.port
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.maxHeaderSizeKB != 0 {
		cfg.MaxHeaderSizeKB = f.maxHeaderSizeKB
	}
	if f.initializationJSONPath != "" {
		cfg.InitializationJSONPath = f.initializationJSONPath
	}
	if f.watchInitializationJSON {
		cfg.WatchInitializationJSON = true
	}
	if f.persistExpectationsSet {
		cfg.PersistExpectations = f.persistExpectations
	}
	if f.persistedExpectationsPath != "" {
		cfg.PersistedExpectationsPath = f.persistedExpectationsPath
	}
	return cfg, nil
}

func runServeWithFlags(f *serveFlags) error {
	cfg, err := resolveConfig(f)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.FormatText,
	})

	var persister store.Persister
	var fileStore *persistence.FileStore
	if cfg.PersistExpectations {
		fileStore = persistence.NewFileStore(cfg.PersistedExpectationsPath, log)
		persister = fileStore
	}

	st := store.New(persister, log)

	if fileStore != nil {
		loaded, err := fileStore.Load()
		if err != nil {
			log.Error("failed to load persisted expectations, starting empty", "error", err)
		} else {
			st.Initialize(loaded)
		}
	}

	if cfg.InitializationJSONPath != "" {
		seed, err := persistence.LoadInitializationFile(cfg.InitializationJSONPath, log)
		if err != nil {
			log.Error("failed to load initialization file", "path", cfg.InitializationJSONPath, "error", err)
		} else {
			for _, e := range seed {
				if _, err := st.Add(e); err != nil {
					log.Warn("rejected expectation from initialization file", "error", err)
				}
			}
		}
	}

	var watcher *persistence.Watcher
	if cfg.WatchInitializationJSON && cfg.InitializationJSONPath != "" {
		watcher = persistence.NewWatcher(cfg.InitializationJSONPath, watchInterval, nil, log, st.Initialize)
		watcher.Start()
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	srv := server.New(addr, cfg.Port, cfg.MaxHeaderSizeKB*1024, st, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigCh:
		log.Info("received shutdown signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("error during shutdown", "error", err)
	}

	if watcher != nil {
		watcher.Stop()
	}

	if fileStore != nil {
		if err := fileStore.Close(); err != nil {
			log.Error("error flushing persisted expectations", "error", err)
		}
	}

	return nil
}
