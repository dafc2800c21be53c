// Command admin bundles operational tasks that run outside the bot process:
// applying migrations and importing course content from spreadsheets.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	coredatabase "github.com/m3rciful/lingobot/core/database"
	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/config"
	"github.com/m3rciful/lingobot/internal/importer"
	"github.com/m3rciful/lingobot/internal/storage"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Maintenance tasks for the learning bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the YAML config")

	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(importCmd(&configPath))
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()
			return coredatabase.RunMigrations(cfg.Database)
		},
	}
}

func importCmd(configPath *string) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import course vocabulary from an xlsx or csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			db, err := coredatabase.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := storage.New(db)
			im := importer.New(repos.Lessons, repos.Vocabulary)
			im.Sheet = sheet

			res, err := im.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("rows: %d, lessons created: %d, words created: %d, skipped: %d\n",
				res.Rows, res.LessonsCreated, res.WordsCreated, res.Skipped)
			for _, e := range res.Errors {
				fmt.Printf("  %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name for xlsx files (default: first sheet)")
	return cmd
}
