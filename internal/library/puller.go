// Package library синхронизирует каталог треков с удаленным хранилищем
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/s3"
)

// Source описывает удаленное хранилище треков
type Source interface {
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	Download(ctx context.Context, key string, w io.WriterAt) (int64, error)
}

// Progress сообщает о ходе скачивания одного объекта
type Progress struct {
	Key     string
	Written int64
	Total   int64
}

// Result содержит итог синхронизации
type Result struct {
	Downloaded []string // локальные пути скачанных файлов
	Skipped    int      // файлы, которые уже есть локально
	Ignored    int      // объекты, не являющиеся аудиофайлами
	Bytes      int64
}

// Puller скачивает недостающие аудиофайлы из хранилища в локальную директорию
type Puller struct {
	source     Source
	dir        string
	extensions map[string]struct{}
	logger     *zap.Logger
}

// NewPuller создает новый Puller
func NewPuller(source Source, dir string, extensions []string, logger *zap.Logger) *Puller {
	if logger == nil {
		logger = zap.NewNop()
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	return &Puller{
		source:     source,
		dir:        dir,
		extensions: exts,
		logger:     logger,
	}
}

// Pull скачивает объекты под префиксом, которых нет в директории.
// Ошибка одного объекта не прерывает синхронизацию; ошибки объединяются.
func (p *Puller) Pull(ctx context.Context, prefix string, onProgress func(Progress)) (Result, error) {
	var result Result

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return result, fmt.Errorf("ошибка создания директории %s: %w", p.dir, err)
	}

	objects, err := p.source.List(ctx, prefix)
	if err != nil {
		return result, err
	}

	var errs []error
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := LocalName(obj.Key)
		if name == "" || !p.isAudio(name) {
			result.Ignored++
			continue
		}

		target := filepath.Join(p.dir, name)
		if _, err := os.Stat(target); err == nil {
			result.Skipped++
			continue
		}

		n, err := p.fetch(ctx, obj, target, onProgress)
		if err != nil {
			p.logger.Warn("объект не скачан", zap.String("key", obj.Key), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		p.logger.Info("объект скачан", zap.String("key", obj.Key), zap.Int64("bytes", n))
		result.Downloaded = append(result.Downloaded, target)
		result.Bytes += n
	}

	return result, errors.Join(errs...)
}

// fetch скачивает объект во временный файл и переименовывает его после успеха
func (p *Puller) fetch(ctx context.Context, obj s3.Object, target string, onProgress func(Progress)) (int64, error) {
	tmp, err := os.CreateTemp(p.dir, ".pull-*")
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var w io.WriterAt = tmp
	if onProgress != nil {
		w = &ProgressWriter{
			WriterAt: tmp,
			OnProgress: func(written int64) {
				onProgress(Progress{Key: obj.Key, Written: written, Total: obj.Size})
			},
		}
	}

	n, err := p.source.Download(ctx, obj.Key, w)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}

	if err := os.Rename(tmpName, target); err != nil {
		return 0, fmt.Errorf("ошибка сохранения %s: %w", target, err)
	}
	return n, nil
}

func (p *Puller) isAudio(name string) bool {
	_, ok := p.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// LocalName возвращает имя локального файла для ключа объекта.
// Для ключей-директорий возвращается пустая строка.
func LocalName(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return ""
	}
	name := path.Base(key)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

// ProgressWriter отслеживает количество записанных байт.
// Downloader пишет частями параллельно, поэтому счетчик атомарный.
type ProgressWriter struct {
	io.WriterAt
	OnProgress func(int64)
	written    atomic.Int64
}

func (pw *ProgressWriter) WriteAt(p []byte, off int64) (int, error) {
	n, err := pw.WriterAt.WriteAt(p, off)
	total := pw.written.Add(int64(n))
	if pw.OnProgress != nil {
		pw.OnProgress(total)
	}
	return n, err
}

// FormatFileSize форматирует размер файла в читаемом виде
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
