package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mzfrvt/hitolog/internal/logger"
	"github.com/mzfrvt/hitolog/internal/service"
	"github.com/mzfrvt/hitolog/internal/store"
)

// Global configuration variables
var (
	configFile string
	dbPath     string
	debug      bool
	cfg        *Config
	st         *store.Store
	log        = logger.CLI()
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hitolog",
		Short: "hitolog - offline contact and relationship tracker",
		Long: `hitolog keeps a local record of the people you meet: who they are,
how you know them, the tags you file them under and the events where
you met. Everything lives in a single embedded database file; there is
no server and no account.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			cfg, err = LoadConfig(configFile)
			if err != nil {
				log.Warn("failed to load config file: %v", err)
			}
			if cfg == nil {
				cfg = DefaultConfig()
			}

			if debug {
				logger.SetLevel(logger.LevelDebug)
			} else {
				logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
			}

			st = store.New(resolveDBPath())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if st != nil {
				if err := st.Close(); err != nil {
					log.Warn("failed to close store: %v", err)
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: hitolog.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default: ~/.hitolog/hitolog.db)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newDBCommand())
	rootCmd.AddCommand(newPersonCommand())
	rootCmd.AddCommand(newTagCommand())
	rootCmd.AddCommand(newEventCommand())

	return rootCmd
}

// resolveDBPath picks the database file: flag, then HITOLOG_DB, then
// config file, then the default location. The parent directory is
// created so first runs work out of the box.
func resolveDBPath() string {
	path := dbPath
	if path == "" {
		path = os.Getenv("HITOLOG_DB")
	}
	if path == "" {
		path = cfg.Database.Path
	}
	if path == "" {
		path = DefaultDBPath()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn("failed to create database directory %s: %v", dir, err)
		}
	}
	return path
}

func personService() *service.PersonService {
	return service.NewPersonService(st)
}

func tagService() *service.TagService {
	return service.NewTagService(st)
}

func eventService() *service.EventService {
	return service.NewEventService(st)
}
