// Package data содержит значения, общие для органайзера треков и контроллера воспроизведения
package data

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrInvalidField возвращается, если запрошено поле, которого нет в Fields
var ErrInvalidField = errors.New("неизвестное поле трека")

// Имена полей метаданных
const (
	FieldArtist   = "artist"
	FieldTitle    = "title"
	FieldAlbum    = "album"
	FieldFilename = "filename"
)

var fields = [...]string{FieldArtist, FieldTitle, FieldAlbum, FieldFilename}

// Fields возвращает упорядоченный набор полей, по которым можно сортировать треки.
// Набор одинаков для всех треков и не зависит от просканированных данных.
func Fields() []string {
	out := make([]string, len(fields))
	copy(out, fields[:])
	return out
}

// DefaultField возвращает поле сортировки по умолчанию (первое в Fields)
func DefaultField() string {
	return fields[0]
}

// ValidateField проверяет, что имя поля входит в Fields
func ValidateField(name string) error {
	for _, f := range fields {
		if f == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidField, name)
}

// Track неизменяемое описание одного аудиофайла
type Track struct {
	filename string
	values   map[string]string
}

// NewTrack создает трек. Отсутствующие поля получают пустое значение,
// неизвестные имена игнорируются, поле filename всегда берется из пути.
func NewTrack(filename string, values map[string]string) Track {
	v := make(map[string]string, len(fields))
	for _, name := range fields {
		v[name] = values[name]
	}
	v[FieldFilename] = filepath.Base(filename)

	return Track{
		filename: filename,
		values:   v,
	}
}

// Filename возвращает путь к файлу трека
func (t Track) Filename() string {
	return t.filename
}

// IsZero сообщает, что трек не инициализирован
func (t Track) IsZero() bool {
	return t.filename == "" && t.values == nil
}

// Field возвращает значение поля или ErrInvalidField для неизвестного имени
func (t Track) Field(name string) (string, error) {
	if err := ValidateField(name); err != nil {
		return "", err
	}
	return t.values[name], nil
}

// Value возвращает значение поля, для неизвестного имени пустую строку
func (t Track) Value(name string) string {
	return t.values[name]
}

// Values возвращает копию всех полей трека
func (t Track) Values() map[string]string {
	out := make(map[string]string, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

func (t Track) Artist() string { return t.values[FieldArtist] }
func (t Track) Title() string  { return t.values[FieldTitle] }
func (t Track) Album() string  { return t.values[FieldAlbum] }

// DisplayName возвращает "Исполнитель - Название" или имя файла, если тегов нет
func (t Track) DisplayName() string {
	switch {
	case t.Artist() != "" && t.Title() != "":
		return t.Artist() + " - " + t.Title()
	case t.Title() != "":
		return t.Title()
	default:
		return t.values[FieldFilename]
	}
}

type trackYAML struct {
	Path     string `yaml:"path"`
	Artist   string `yaml:"artist"`
	Title    string `yaml:"title"`
	Album    string `yaml:"album"`
	Filename string `yaml:"filename"`
}

// MarshalYAML реализует yaml.Marshaler
func (t Track) MarshalYAML() (interface{}, error) {
	return trackYAML{
		Path:     t.filename,
		Artist:   t.Artist(),
		Title:    t.Title(),
		Album:    t.Album(),
		Filename: t.values[FieldFilename],
	}, nil
}

// Catalog неизменяемый снимок треков одной директории
type Catalog struct {
	dir     string
	builtAt time.Time
	tracks  []Track
}

// NewCatalog создает каталог; срез треков копируется
func NewCatalog(dir string, tracks []Track, builtAt time.Time) Catalog {
	t := make([]Track, len(tracks))
	copy(t, tracks)
	return Catalog{
		dir:     dir,
		builtAt: builtAt,
		tracks:  t,
	}
}

// Dir возвращает директорию, из которой построен каталог
func (c Catalog) Dir() string { return c.dir }

// BuiltAt возвращает время построения каталога
func (c Catalog) BuiltAt() time.Time { return c.builtAt }

// Len возвращает количество треков
func (c Catalog) Len() int { return len(c.tracks) }

// Tracks возвращает копию треков в порядке каталога
func (c Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// At возвращает трек по индексу
func (c Catalog) At(i int) (Track, bool) {
	if i < 0 || i >= len(c.tracks) {
		return Track{}, false
	}
	return c.tracks[i], true
}

// Find ищет трек по пути к файлу
func (c Catalog) Find(filename string) (Track, bool) {
	for _, t := range c.tracks {
		if t.filename == filename {
			return t, true
		}
	}
	return Track{}, false
}
