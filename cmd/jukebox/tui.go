package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/track"
	"github.com/hazadus/go-jukebox/internal/tui"
	tuiApp "github.com/hazadus/go-jukebox/internal/tui/app"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for browsing and playing tracks.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if dir == "" {
				dir = app.Config.MusicDir
			}
			return app.launchTUI(dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "music directory (default from config)")
	return cmd
}

func (app *Application) tuiDeps(dir string) tuiApp.Deps {
	deps := tuiApp.Deps{
		Builder:    app.Organizer,
		Controller: app.Controller,
		Dir:        dir,
		Done:       app.done(),
		Duration:   app.duration(),
		Logger:     app.Logger.Named("tui"),
	}

	if app.Config.Watch {
		deps.Watch = func(ctx context.Context, d string) (<-chan struct{}, error) {
			return track.NewWatcher(d, 0, app.Logger.Named("watcher")).Watch(ctx)
		}
	}
	return deps
}

func (app *Application) launchTUI(dir string) error {
	return tui.NewApp(app.tuiDeps(dir)).Run()
}
