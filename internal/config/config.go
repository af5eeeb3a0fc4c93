// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-jukebox/internal/data"
)

// envPrefix префикс переменных окружения, переопределяющих файл
const envPrefix = "JUKEBOX_"

// Config структура для хранения конфигурации приложения
type Config struct {
	MusicDir    string   `yaml:"music_dir"`
	DefaultSort string   `yaml:"default_sort"`
	Extensions  []string `yaml:"extensions"`
	SampleRate  int      `yaml:"sample_rate"`
	BufferMs    int      `yaml:"buffer_ms"`
	Watch       bool     `yaml:"watch"`
	LogLevel    string   `yaml:"log_level"`
	LogFile     string   `yaml:"log_file"` // пустое значение отключает логирование

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
	PullPrefix    string `yaml:"pull_prefix"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		MusicDir:    "./audio-files",
		DefaultSort: data.DefaultField(),
		Extensions:  []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"},
		SampleRate:  44100,
		BufferMs:    200,
		Watch:       true,
		LogLevel:    "info",
		LogFile:     "~/.jukebox.log",
	}
}

// LoadConfig загружает конфигурацию из указанного файла.
// Отсутствующий файл не является ошибкой: используются значения по умолчанию.
// Переменные окружения JUKEBOX_* (в том числе из .env) переопределяют значения файла.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := expandHome(filePath, home)

	config := Default()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	default:
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	}

	// .env не переопределяет уже заданные переменные окружения
	_ = godotenv.Load()
	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	config.applyDefaults()
	config.MusicDir = expandHome(config.MusicDir, home)
	config.LogFile = expandHome(config.LogFile, home)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv переопределяет поля из переменных окружения
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MUSIC_DIR":       &c.MusicDir,
		"DEFAULT_SORT":    &c.DefaultSort,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FILE":        &c.LogFile,
		"AWS_BUCKET_NAME": &c.AwsBucketName,
		"AWS_ACCESS_KEY":  &c.AwsAccessKey,
		"AWS_SECRET_KEY":  &c.AwsSecretKey,
		"AWS_REGION":      &c.AwsRegion,
		"AWS_ENDPOINT":    &c.AwsEndpoint,
		"PULL_PREFIX":     &c.PullPrefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SAMPLE_RATE": &c.SampleRate,
		"BUFFER_MS":   &c.BufferMs,
	}
	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("неверное значение %s%s: %q", envPrefix, key, v)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("неверное значение %sWATCH: %q", envPrefix, v)
		}
		c.Watch = b
	}

	if v, ok := lookup(envPrefix + "EXTENSIONS"); ok {
		c.Extensions = strings.Split(v, ",")
	}
	return nil
}

// applyDefaults заполняет пустые значения
func (c *Config) applyDefaults() {
	def := Default()
	if c.MusicDir == "" {
		c.MusicDir = def.MusicDir
	}
	if c.DefaultSort == "" {
		c.DefaultSort = def.DefaultSort
	}
	if len(c.Extensions) == 0 {
		c.Extensions = def.Extensions
	}
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.BufferMs <= 0 {
		c.BufferMs = def.BufferMs
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if err := data.ValidateField(c.DefaultSort); err != nil {
		return fmt.Errorf("неверное поле сортировки по умолчанию: %w", err)
	}
	return nil
}

// HasS3 сообщает, что заданы настройки удаленного хранилища
func (c *Config) HasS3() bool {
	return c.AwsBucketName != ""
}

// expandHome раскрывает тильду в начале пути
func expandHome(path, home string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}
