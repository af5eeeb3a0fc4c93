package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-jukebox/internal/data"
)

func writeConfig(t *testing.T, v interface{}) string {
	t.Helper()

	raw, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("Ошибка сериализации конфигурации: %v", err)
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, raw, 0644); err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}
	return configPath
}

func TestLoadConfigFromFile(t *testing.T) {
	testConfig := Config{
		MusicDir:      "/srv/music",
		DefaultSort:   data.FieldTitle,
		Extensions:    []string{".mp3"},
		SampleRate:    48000,
		BufferMs:      100,
		LogLevel:      "debug",
		AwsBucketName: "test-bucket",
		AwsAccessKey:  "test-access-key",
		AwsSecretKey:  "test-secret-key",
		AwsRegion:     "us-east-1",
		AwsEndpoint:   "https://s3.amazonaws.com",
		PullPrefix:    "music/",
	}

	loadedConfig, err := LoadConfig(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loadedConfig.MusicDir != testConfig.MusicDir {
		t.Errorf("Ожидался MusicDir: %s, получено: %s", testConfig.MusicDir, loadedConfig.MusicDir)
	}
	if loadedConfig.DefaultSort != data.FieldTitle {
		t.Errorf("Ожидался DefaultSort: %s, получено: %s", data.FieldTitle, loadedConfig.DefaultSort)
	}
	if !reflect.DeepEqual(loadedConfig.Extensions, testConfig.Extensions) {
		t.Errorf("Ожидались Extensions: %v, получено: %v", testConfig.Extensions, loadedConfig.Extensions)
	}
	if loadedConfig.SampleRate != 48000 || loadedConfig.BufferMs != 100 {
		t.Errorf("Неверные настройки звука: %d, %d", loadedConfig.SampleRate, loadedConfig.BufferMs)
	}
	if loadedConfig.AwsBucketName != testConfig.AwsBucketName {
		t.Errorf("Ожидался AwsBucketName: %s, получено: %s", testConfig.AwsBucketName, loadedConfig.AwsBucketName)
	}
	if loadedConfig.AwsRegion != testConfig.AwsRegion {
		t.Errorf("Ожидался AwsRegion: %s, получено: %s", testConfig.AwsRegion, loadedConfig.AwsRegion)
	}
	if loadedConfig.PullPrefix != "music/" {
		t.Errorf("Ожидался PullPrefix: music/, получено: %s", loadedConfig.PullPrefix)
	}
	if !loadedConfig.HasS3() {
		t.Error("Ожидалось, что настройки S3 заданы")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	loadedConfig, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Отсутствующий файл не должен быть ошибкой: %v", err)
	}

	def := Default()
	if loadedConfig.MusicDir != def.MusicDir {
		t.Errorf("Ожидался MusicDir по умолчанию: %s, получено: %s", def.MusicDir, loadedConfig.MusicDir)
	}
	if loadedConfig.DefaultSort != data.DefaultField() {
		t.Errorf("Ожидалось поле сортировки по умолчанию %s, получено %s", data.DefaultField(), loadedConfig.DefaultSort)
	}
	if loadedConfig.SampleRate != def.SampleRate {
		t.Errorf("Ожидалась частота по умолчанию %d, получено %d", def.SampleRate, loadedConfig.SampleRate)
	}
	if loadedConfig.HasS3() {
		t.Error("Настройки S3 не должны быть заданы по умолчанию")
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	minimalConfig := map[string]interface{}{
		"aws_bucket_name": "test-bucket",
		"watch":           false,
	}

	loadedConfig, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loadedConfig.Watch {
		t.Error("Ожидалось, что watch выключен из файла")
	}
	if len(loadedConfig.Extensions) == 0 {
		t.Error("Ожидались расширения по умолчанию")
	}
	if loadedConfig.BufferMs != Default().BufferMs {
		t.Errorf("Ожидался буфер по умолчанию, получено %d", loadedConfig.BufferMs)
	}
}

func TestEnvVarOverride(t *testing.T) {
	configPath := writeConfig(t, Config{
		MusicDir:      "/from/file",
		AwsBucketName: "default-bucket",
	})

	t.Setenv("JUKEBOX_MUSIC_DIR", "/from/env")
	t.Setenv("JUKEBOX_AWS_BUCKET_NAME", "env-bucket")
	t.Setenv("JUKEBOX_SAMPLE_RATE", "22050")
	t.Setenv("JUKEBOX_WATCH", "false")
	t.Setenv("JUKEBOX_EXTENSIONS", ".mp3,.wav")

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loadedConfig.MusicDir != "/from/env" {
		t.Errorf("Ожидался MusicDir из окружения, получено: %s", loadedConfig.MusicDir)
	}
	if loadedConfig.AwsBucketName != "env-bucket" {
		t.Errorf("Ожидался AwsBucketName из окружения, получено: %s", loadedConfig.AwsBucketName)
	}
	if loadedConfig.SampleRate != 22050 {
		t.Errorf("Ожидалась частота 22050, получено %d", loadedConfig.SampleRate)
	}
	if loadedConfig.Watch {
		t.Error("Ожидалось, что watch выключен из окружения")
	}
	if !reflect.DeepEqual(loadedConfig.Extensions, []string{".mp3", ".wav"}) {
		t.Errorf("Неверные расширения из окружения: %v", loadedConfig.Extensions)
	}
}

func TestEnvVarInvalidNumber(t *testing.T) {
	t.Setenv("JUKEBOX_BUFFER_MS", "много")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Ожидалась ошибка для нечислового значения")
	}
	if !strings.Contains(err.Error(), "JUKEBOX_BUFFER_MS") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestLoadConfigInvalidSortField(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, map[string]string{"default_sort": "genre"}))
	if !errors.Is(err, data.ErrInvalidField) {
		t.Errorf("Ожидалась ошибка ErrInvalidField, получено: %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid_config.yaml")

	invalidYAML := `aws_bucket_name: "test-bucket"
invalid_field: [unclosed array
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Ожидалась ошибка при загрузке некорректного YAML")
	}
	if !strings.Contains(err.Error(), "yaml") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestLoadConfigWithTilde(t *testing.T) {
	loadedConfig, err := LoadConfig(writeConfig(t, Config{
		MusicDir: "~/music",
		LogFile:  "~/logs/jukebox.log",
	}))
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	home, _ := os.UserHomeDir()
	if loadedConfig.MusicDir != filepath.Join(home, "music") {
		t.Errorf("Ожидался MusicDir с раскрытой тильдой, получено: %s", loadedConfig.MusicDir)
	}
	if loadedConfig.LogFile != filepath.Join(home, "logs", "jukebox.log") {
		t.Errorf("Ожидался LogFile с раскрытой тильдой, получено: %s", loadedConfig.LogFile)
	}
}

func TestExpandHome(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"~", "/home/u"},
		{"~/a", "/home/u/a"},
		{"~user/a", "~user/a"},
		{"/abs", "/abs"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandHome(tt.path, "/home/u"); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, ожидалось %q", tt.path, got, tt.expected)
		}
	}
}
