package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "jukebox",
		Short: "Play music from a local directory",
		Long:  `A command line jukebox: lists audio files of a directory sorted by tags and plays them.`,
		// Компоненты собираются после разбора флагов
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			full, err := NewApplication(app.Config, debug)
			if err != nil {
				return err
			}
			*app = *full
			return nil
		},
		SilenceUsage: true,
		Version:      version,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs to stderr")

	rootCmd.AddCommand(app.createListCommand(ctx))
	rootCmd.AddCommand(app.createFieldsCommand())
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand())
	rootCmd.AddCommand(app.createPullCommand(ctx))

	return rootCmd
}
