// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/tui/dirprompt"
	tuiPlayer "github.com/hazadus/go-jukebox/internal/tui/player"
	"github.com/hazadus/go-jukebox/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран списка треков
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран плеера
	PlayerScreen
	// DirPromptScreen - экран смены директории
	DirPromptScreen
)

// CatalogBuilder строит каталог треков из директории
type CatalogBuilder interface {
	Build(ctx context.Context, dir string) (data.Catalog, error)
}

// WatchFunc начинает следить за директорией до отмены ctx
type WatchFunc func(ctx context.Context, dir string) (<-chan struct{}, error)

// Deps содержит зависимости главной модели
type Deps struct {
	Builder    CatalogBuilder
	Controller *player.Controller
	Dir        string

	Done     <-chan struct{}                // сигнал движка о конце трека, может быть nil
	Watch    WatchFunc                      // nil отключает слежение
	Duration func(frames int) time.Duration // nil скрывает время
	Logger   *zap.Logger
}

// CatalogLoadedMsg содержит результат построения каталога
type CatalogLoadedMsg struct {
	Dir        string
	Catalog    data.Catalog
	Err        error
	DirChanged bool
}

// dirChangedMsg приходит от наблюдателя за директорией
type dirChangedMsg struct {
	changes <-chan struct{}
}

// trackDoneMsg приходит, когда движок доиграл трек сессии sessionID
type trackDoneMsg struct {
	sessionID string
}

// MainModel представляет главную модель TUI
type MainModel struct {
	deps           Deps
	dir            string
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	promptModel    *dirprompt.Model
	events         <-chan player.Event
	snapshot       player.Snapshot
	watchCancel    context.CancelFunc
}

// NewMainModel создает новую главную модель; каталог строится в Init
func NewMainModel(deps Deps) *MainModel {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &MainModel{
		deps:           deps,
		dir:            deps.Dir,
		currentScreen:  TracklistScreen,
		tracklistModel: tracklist.NewModel(data.NewCatalog(deps.Dir, nil, time.Time{})),
		events:         deps.Controller.Subscribe(),
		snapshot:       deps.Controller.Snapshot(),
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.tracklistModel.Init(),
		m.loadCatalog(m.dir, true),
		m.listenEvents(),
		m.listenDone(),
	)
}

// Dir возвращает текущую директорию каталога
func (m *MainModel) Dir() string {
	return m.dir
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		if msg.String() == "ctrl+c" {
			m.deps.Controller.Stop()
			return m, tea.Quit
		}

	case CatalogLoadedMsg:
		return m, m.applyCatalog(msg)

	case dirChangedMsg:
		m.deps.Logger.Debug("изменение директории", zap.String("dir", m.dir))
		return m, tea.Batch(m.loadCatalog(m.dir, false), listenChanges(msg.changes))

	case trackDoneMsg:
		// Автоматического перехода нет: сессия завершается.
		// Сигнал мог устареть, если пользователь уже запустил другой трек.
		if current := m.deps.Controller.Snapshot().SessionID; msg.sessionID == "" || msg.sessionID != current {
			m.deps.Logger.Debug("устаревший сигнал конца трека",
				zap.String("session", msg.sessionID),
				zap.String("current", current))
			return m, m.listenDone()
		}
		m.deps.Controller.Stop()
		return m, m.listenDone()

	case tuiPlayer.EventMsg:
		m.snapshot = msg.Event.Snapshot
		m.tracklistModel.SetNowPlaying(nowPlaying(m.snapshot))
		var cmd tea.Cmd
		if m.playerModel != nil {
			cmd = m.updatePlayer(msg)
		}
		return m, tea.Batch(cmd, m.listenEvents())

	case tracklist.TrackSelectedMsg:
		m.currentScreen = PlayerScreen
		m.playerModel = tuiPlayer.NewModel(msg.Track, m.deps.Controller, m.deps.Duration)
		return m, m.playerModel.Init()

	case tracklist.ChangeDirMsg:
		m.currentScreen = DirPromptScreen
		m.promptModel = dirprompt.NewModel(m.dir)
		return m, m.promptModel.Init()

	case tuiPlayer.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.playerModel = nil
		return m, nil

	case dirprompt.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.promptModel = nil
		return m, nil

	case dirprompt.DirChosenMsg:
		m.currentScreen = TracklistScreen
		m.promptModel = nil
		m.tracklistModel.SetStatus(fmt.Sprintf("Загрузка %s...", msg.Dir))
		return m, m.loadCatalog(msg.Dir, true)

	case tea.WindowSizeMsg:
		// Размер нужен всем экранам, в том числе созданным позже
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
		cmds = append(cmds, cmd)
		if m.playerModel != nil {
			cmds = append(cmds, m.updatePlayer(msg))
		}
		if m.promptModel != nil {
			m.promptModel, cmd = m.promptModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case TracklistScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)

	case PlayerScreen:
		if m.playerModel != nil {
			cmd = m.updatePlayer(msg)
		}

	case DirPromptScreen:
		if m.promptModel != nil {
			m.promptModel, cmd = m.promptModel.Update(msg)
		}
	}

	return m, cmd
}

func (m *MainModel) updatePlayer(msg tea.Msg) tea.Cmd {
	updatedModel, cmd := m.playerModel.Update(msg)
	if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
		m.playerModel = playerModel
	}
	return cmd
}

// applyCatalog принимает новый каталог. При ошибке предыдущий каталог остается.
func (m *MainModel) applyCatalog(msg CatalogLoadedMsg) tea.Cmd {
	// Обновление от старого наблюдателя после смены директории
	if !msg.DirChanged && msg.Dir != m.dir {
		return nil
	}
	if msg.Err != nil {
		m.deps.Logger.Warn("каталог не построен", zap.String("dir", msg.Dir), zap.Error(msg.Err))
		m.tracklistModel.SetStatus(fmt.Sprintf("Ошибка: %v", msg.Err))
		return nil
	}

	if msg.DirChanged && msg.Dir != m.dir {
		// Треки старой директории больше не в каталоге
		m.deps.Controller.Stop()
	}

	m.tracklistModel.SetCatalog(msg.Catalog, msg.DirChanged)
	if !msg.DirChanged {
		return nil
	}

	m.dir = msg.Dir
	return m.restartWatch()
}

// restartWatch переключает наблюдателя на текущую директорию
func (m *MainModel) restartWatch() tea.Cmd {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	if m.deps.Watch == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := m.deps.Watch(ctx, m.dir)
	if err != nil {
		cancel()
		m.deps.Logger.Warn("слежение за директорией недоступно", zap.String("dir", m.dir), zap.Error(err))
		return nil
	}
	m.watchCancel = cancel
	return listenChanges(changes)
}

func (m *MainModel) loadCatalog(dir string, dirChanged bool) tea.Cmd {
	builder := m.deps.Builder
	return func() tea.Msg {
		catalog, err := builder.Build(context.Background(), dir)
		return CatalogLoadedMsg{Dir: dir, Catalog: catalog, Err: err, DirChanged: dirChanged}
	}
}

func listenChanges(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return dirChangedMsg{changes: changes}
	}
}

func (m *MainModel) listenEvents() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return tuiPlayer.EventMsg{Event: ev}
	}
}

func (m *MainModel) listenDone() tea.Cmd {
	if m.deps.Done == nil {
		return nil
	}
	done := m.deps.Done
	controller := m.deps.Controller
	return func() tea.Msg {
		if _, ok := <-done; !ok {
			return nil
		}
		return trackDoneMsg{sessionID: controller.Snapshot().SessionID}
	}
}

func nowPlaying(s player.Snapshot) string {
	if !s.HasTrack() || s.State == player.Stopped {
		return ""
	}
	name := s.Track.DisplayName()
	if s.State == player.Paused {
		return name + " (пауза)"
	}
	return name
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case TracklistScreen:
		return m.tracklistModel.View()

	case PlayerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	case DirPromptScreen:
		if m.promptModel != nil {
			return m.promptModel.View()
		}
		return "Ошибка: модель выбора директории не инициализирована"

	default:
		return "Неизвестный экран"
	}
}

// Close отписывается от контроллера и останавливает наблюдателя
func (m *MainModel) Close() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.deps.Controller.Unsubscribe(m.events)
}
