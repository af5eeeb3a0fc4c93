// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"github.com/hazadus/go-jukebox/internal/data"
)

// Extractor извлекает теги из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromReader читает теги из io.ReadSeeker.
// При ошибке возвращает пустые значения всех полей вместе с ошибкой.
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker) (map[string]string, error) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return emptyValues(), fmt.Errorf("ошибка перемотки файла: %w", err)
	}

	m, err := tag.ReadFrom(reader)
	if err != nil {
		return emptyValues(), fmt.Errorf("ошибка чтения тегов: %w", err)
	}

	values := emptyValues()
	values[data.FieldArtist] = strings.TrimSpace(m.Artist())
	values[data.FieldTitle] = strings.TrimSpace(m.Title())
	values[data.FieldAlbum] = strings.TrimSpace(m.Album())
	return values, nil
}

// ExtractFromFile читает теги из файла
func (e *Extractor) ExtractFromFile(filePath string) (map[string]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return emptyValues(), fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	return e.ExtractFromReader(file)
}

func emptyValues() map[string]string {
	return map[string]string{
		data.FieldArtist: "",
		data.FieldTitle:  "",
		data.FieldAlbum:  "",
	}
}
