package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/config"
	"github.com/hazadus/go-jukebox/internal/engine"
	"github.com/hazadus/go-jukebox/internal/logger"
	"github.com/hazadus/go-jukebox/internal/metadata"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/track"
)

const (
	defaultConfigPath = "~/.jukebox"
)

// version задается при сборке: -ldflags "-X main.version=..."
var version = "dev"

// Application объединяет компоненты, общие для всех команд
type Application struct {
	Config     *config.Config
	Logger     *zap.Logger
	Extractor  *metadata.Extractor
	Organizer  *track.Organizer
	Engine     *engine.BeepEngine // nil в тестах
	Controller *player.Controller
}

// NewApplication создает приложение по конфигурации
func NewApplication(cfg *config.Config, debug bool) (*Application, error) {
	logCfg := logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
	}
	if debug {
		logCfg.Level = "debug"
		logCfg.OutputPath = ""
		logCfg.Console = os.Stderr
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	warnUndecodable(log, cfg.Extensions)

	extractor := metadata.NewExtractor()
	organizer := track.NewOrganizer(extractor,
		track.WithExtensions(cfg.Extensions),
		track.WithLogger(log.Named("organizer")),
	)

	beepEngine := engine.NewBeepEngine(engine.Config{
		SampleRate: cfg.SampleRate,
		Buffer:     time.Duration(cfg.BufferMs) * time.Millisecond,
	}, log.Named("engine"))

	return &Application{
		Config:     cfg,
		Logger:     log,
		Extractor:  extractor,
		Organizer:  organizer,
		Engine:     beepEngine,
		Controller: player.NewController(beepEngine, player.WithLogger(log.Named("player"))),
	}, nil
}

// warnUndecodable отмечает расширения, которые попадут в список, но не будут воспроизводиться
func warnUndecodable(log *zap.Logger, extensions []string) {
	for _, ext := range extensions {
		if !slices.Contains(engine.SupportedExtensions(), strings.ToLower(ext)) {
			log.Debug("расширение не поддерживается движком", zap.String("ext", ext))
		}
	}
}

// Close останавливает воспроизведение и освобождает ресурсы
func (app *Application) Close() {
	if app.Controller != nil {
		app.Controller.Close()
	}
	if app.Engine != nil {
		_ = app.Engine.Close()
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}

// done возвращает сигнал конца трека; nil-канал никогда не срабатывает
func (app *Application) done() <-chan struct{} {
	if app.Engine == nil {
		return nil
	}
	return app.Engine.Done()
}

// duration переводит кадры во время, если движок это умеет
func (app *Application) duration() func(int) time.Duration {
	if app.Engine == nil {
		return nil
	}
	return app.Engine.Duration
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		return 1
	}

	app := &Application{Config: cfg}
	defer app.Close()

	if err := app.createRootCommand(ctx).ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
