// Package track содержит логику построения и сортировки каталога треков
package track

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
)

// ErrDirectoryUnavailable возвращается, если директорию нельзя открыть или прочитать
var ErrDirectoryUnavailable = errors.New("директория недоступна")

// DefaultExtensions расширения файлов, которые считаются аудио
var DefaultExtensions = []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"}

// MetadataExtractor читает теги одного файла
type MetadataExtractor interface {
	ExtractFromFile(filePath string) (map[string]string, error)
}

// Organizer строит каталог треков из директории
type Organizer struct {
	extractor  MetadataExtractor
	extensions map[string]struct{}
	logger     *zap.Logger
	now        func() time.Time
}

// Option настраивает Organizer
type Option func(*Organizer)

// WithExtensions задает набор расширений аудиофайлов
func WithExtensions(exts []string) Option {
	return func(o *Organizer) {
		o.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions[ext] = struct{}{}
		}
	}
}

// WithLogger задает логгер
func WithLogger(logger *zap.Logger) Option {
	return func(o *Organizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrganizer создает новый экземпляр Organizer
func NewOrganizer(extractor MetadataExtractor, opts ...Option) *Organizer {
	o := &Organizer{
		extractor: extractor,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	WithExtensions(DefaultExtensions)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build сканирует директорию (без вложенных) и возвращает новый каталог.
// Ошибка чтения тегов одного файла не прерывает сканирование: поля трека остаются пустыми.
func (o *Organizer) Build(ctx context.Context, dir string) (data.Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return data.Catalog{}, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, dir, err)
	}

	tracks := make([]data.Track, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return data.Catalog{}, err
		}

		if !o.isAudio(entry) {
			skipped++
			continue
		}

		path := filepath.Join(dir, entry.Name())
		values, err := o.extractor.ExtractFromFile(path)
		if err != nil {
			o.logger.Debug("не удалось прочитать теги",
				zap.String("file", path),
				zap.Error(err))
			values = nil
		}

		tracks = append(tracks, data.NewTrack(path, values))
	}

	o.logger.Info("каталог построен",
		zap.String("dir", dir),
		zap.Int("tracks", len(tracks)),
		zap.Int("skipped", skipped))

	return data.NewCatalog(dir, tracks, o.now()), nil
}

// isAudio проверяет, что запись является обычным файлом с аудио расширением
func (o *Organizer) isAudio(entry os.DirEntry) bool {
	if entry.IsDir() {
		return false
	}
	if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	_, ok := o.extensions[strings.ToLower(filepath.Ext(entry.Name()))]
	return ok
}

// SortByField возвращает новый срез треков, устойчиво отсортированный по значению поля.
// Сравнение побайтовое и чувствительно к регистру; каталог не изменяется.
func SortByField(catalog data.Catalog, field string) ([]data.Track, error) {
	if err := data.ValidateField(field); err != nil {
		return nil, err
	}

	tracks := catalog.Tracks()
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Value(field) < tracks[j].Value(field)
	})
	return tracks, nil
}
