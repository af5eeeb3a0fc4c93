package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/utils"
)

// seekStep шаг перемотки клавишами f/b
const seekStep = 0.1

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var sortField string

	cmd := &cobra.Command{
		Use:   "play [index|path]",
		Short: "Play a track by its list index or file path",
		Long: `Play a track from the music directory by its index in the sorted list
(as shown by 'list'), or any audio file by path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if sortField == "" {
				sortField = app.Config.DefaultSort
			}
			t, err := app.resolveTrack(ctx, args[0], sortField)
			if err != nil {
				return err
			}
			return app.playTrack(ctx, t)
		},
	}

	cmd.Flags().StringVarP(&sortField, "sort", "s", "", "sort field used to resolve the index")
	return cmd
}

// resolveTrack находит трек по номеру в отсортированном списке или по пути к файлу
func (app *Application) resolveTrack(ctx context.Context, arg, sortField string) (data.Track, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		// Не номер: считаем аргумент путем к файлу
		values, extractErr := app.Extractor.ExtractFromFile(arg)
		if extractErr != nil {
			app.Logger.Debug("теги не прочитаны", zap.String("file", arg), zap.Error(extractErr))
		}
		return data.NewTrack(arg, values), nil
	}

	tracks, err := app.sortedTracks(ctx, app.Config.MusicDir, sortField)
	if err != nil {
		return data.Track{}, err
	}
	if index < 1 || index > len(tracks) {
		return data.Track{}, fmt.Errorf("трек с номером %d не найден (всего треков: %d)", index, len(tracks))
	}
	return tracks[index-1], nil
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// readKeys читает одиночные символы без ожидания Enter.
// Завершается при ошибке чтения или после отмены ctx.
func readKeys(ctx context.Context, r io.Reader, keys chan<- byte) {
	defer close(keys)

	buffer := make([]byte, 1)
	for {
		if _, err := r.Read(buffer); err != nil {
			return
		}
		select {
		case keys <- buffer[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (app *Application) playTrack(ctx context.Context, t data.Track) error {
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   Исполнитель: %s\n", utils.ValueOrDash(t.Artist()))
	fmt.Printf("   Название: %s\n", utils.ValueOrDash(t.Title()))
	fmt.Printf("   Альбом: %s\n", utils.ValueOrDash(t.Album()))
	fmt.Printf("   Файл: %s\n", t.Filename())

	if err := app.Controller.Play(t); err != nil {
		return err
	}
	defer app.Controller.Stop()

	if d := app.duration(); d != nil {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatClock(d(app.Controller.Progress().Length)))
	}
	fmt.Println()
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [f]/[b]  - перемотка вперед/назад на 10%%\n")
	fmt.Printf("   [0-9]    - перейти к 0%%..90%%\n")
	fmt.Printf("   [q]      - остановить и выйти\n")
	fmt.Println()

	enableRawMode()
	defer disableRawMode()

	keysCtx, cancelKeys := context.WithCancel(ctx)
	defer cancelKeys()

	keys := make(chan byte)
	go readKeys(keysCtx, os.Stdin, keys)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			quit, err := handlePlayerKey(app.Controller, key)
			if err != nil {
				fmt.Printf("\r\033[K⚠️  %v\n", err)
			}
			if quit {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}
			app.displayProgress()

		case <-ticker.C:
			app.displayProgress()

		case <-app.done():
			fmt.Println("\n✅ Воспроизведение завершено")
			return nil

		case <-ctx.Done():
			fmt.Println("\n🚫 Операция отменена")
			return nil
		}
	}
}

// handlePlayerKey выполняет команду клавиши. Возвращает true, если нужно выйти.
func handlePlayerKey(c *player.Controller, key byte) (bool, error) {
	switch {
	case key == ' ' || key == '\n' || key == '\r':
		switch c.State() {
		case player.Playing:
			c.Pause()
		case player.Paused:
			c.Resume()
		}
	case key == 'f':
		return false, seekRelative(c, seekStep)
	case key == 'b':
		return false, seekRelative(c, -seekStep)
	case key >= '0' && key <= '9':
		return false, c.Seek(float64(key-'0') / 10)
	case key == 'q':
		c.Stop()
		return true, nil
	}
	return false, nil
}

// seekRelative сдвигает позицию на delta от текущей доли, ограничивая диапазоном [0, 1]
func seekRelative(c *player.Controller, delta float64) error {
	ratio := c.Progress().Ratio() + delta
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return c.Seek(ratio)
}

// displayProgress отображает прогресс воспроизведения
func (app *Application) displayProgress() {
	snapshot := app.Controller.Snapshot()
	progress := app.Controller.Progress()

	statusIcon := "▶️ "
	if snapshot.State == player.Paused {
		statusIcon = "⏸️ "
	}

	if d := app.duration(); d != nil && progress.Length > 0 {
		fmt.Printf("\r\033[K%s %s | %s / %s",
			statusIcon,
			utils.FormatPercent(progress.Ratio()),
			utils.FormatClock(d(progress.Position)),
			utils.FormatClock(d(progress.Length)))
		return
	}
	fmt.Printf("\r\033[K%s %s", statusIcon, utils.FormatPercent(progress.Ratio()))
}
