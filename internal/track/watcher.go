package track

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher следит за изменениями в директории с треками.
// Каталог он не перестраивает: получатель сигнала сам вызывает Organizer.Build.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher создает наблюдателя за директорией
func NewWatcher(dir string, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logger,
	}
}

// Dir возвращает наблюдаемую директорию
func (w *Watcher) Dir() string {
	return w.dir
}

// Watch запускает наблюдение. Канал получает сигнал после серии изменений
// и закрывается при отмене контекста.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, w.dir, err)
	}

	changes := make(chan struct{}, 1)
	go w.loop(ctx, fsw, changes)
	return changes, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, changes chan<- struct{}) {
	defer close(changes)
	defer fsw.Close()

	// Таймер создается остановленным и взводится первым событием
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			w.logger.Debug("изменение в директории",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("ошибка наблюдателя", zap.Error(err))

		case <-timer.C:
			select {
			case changes <- struct{}{}:
			default:
				// Сигнал уже ждет получателя
			}
		}
	}
}
