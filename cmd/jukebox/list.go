package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/track"
	"github.com/hazadus/go-jukebox/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var dir, sortField, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks of the music directory",
		Long:  `Scan the music directory and display its tracks sorted by a metadata field.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if dir == "" {
				dir = app.Config.MusicDir
			}
			if sortField == "" {
				sortField = app.Config.DefaultSort
			}
			return app.listTracks(ctx, dir, sortField, format)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "music directory (default from config)")
	cmd.Flags().StringVarP(&sortField, "sort", "s", "", "sort field: "+strings.Join(data.Fields(), ", "))
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or yaml")
	return cmd
}

// sortedTracks строит каталог и сортирует его по полю
func (app *Application) sortedTracks(ctx context.Context, dir, sortField string) ([]data.Track, error) {
	if err := data.ValidateField(sortField); err != nil {
		return nil, err
	}

	catalog, err := app.Organizer.Build(ctx, dir)
	if err != nil {
		return nil, err
	}

	return track.SortByField(catalog, sortField)
}

func (app *Application) listTracks(ctx context.Context, dir, sortField, format string) error {
	if format != "table" && format != "yaml" {
		return fmt.Errorf("неизвестный формат вывода: %s", format)
	}

	tracks, err := app.sortedTracks(ctx, dir, sortField)
	if err != nil {
		return err
	}

	if format == "yaml" {
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(tracks)
	}

	if len(tracks) == 0 {
		fmt.Printf("📚 В директории %s нет треков.\n", dir)
		return nil
	}

	fmt.Printf("📚 Найдено треков: %d (сортировка: %s)\n\n", len(tracks), sortField)

	fmt.Printf("%-4s %-30s %-30s %-20s %s\n",
		"№", "Исполнитель", "Название", "Альбом", "Файл")
	fmt.Println(strings.Repeat("-", 120))

	for i, t := range tracks {
		fmt.Printf("%-4d %-30s %-30s %-20s %s\n",
			i+1,
			utils.TruncateString(utils.ValueOrDash(t.Artist()), 28),
			utils.TruncateString(utils.ValueOrDash(t.Title()), 28),
			utils.TruncateString(utils.ValueOrDash(t.Album()), 18),
			t.Value(data.FieldFilename))
	}

	fmt.Println()
	fmt.Printf("💡 Используйте 'jukebox play [№] --sort %s' для воспроизведения трека\n", sortField)
	return nil
}

// createFieldsCommand создает команду fields
func (app *Application) createFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List metadata fields available for sorting",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, f := range data.Fields() {
				marker := " "
				if f == app.Config.DefaultSort {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, f)
			}
		},
	}
}
