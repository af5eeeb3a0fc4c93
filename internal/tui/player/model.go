// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/utils"
)

// seekStep шаг перемотки стрелками
const seekStep = 0.05

// tickInterval период обновления прогресс-бара
const tickInterval = 200 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// EventMsg доставляет событие контроллера на экран
type EventMsg struct {
	Event player.Event
}

// PlaybackErrorMsg отправляется при ошибке воспроизведения
type PlaybackErrorMsg struct {
	Error error
}

// tickMsg обновляет прогресс; принадлежит конкретной модели
type tickMsg struct {
	model *Model
}

// Model представляет модель экрана воспроизведения
type Model struct {
	track       data.Track
	controller  *player.Controller
	duration    func(frames int) time.Duration
	progressBar progress.Model
	snapshot    player.Snapshot
	prog        player.Progress
	error       error
	width       int
	height      int
}

// NewModel создает модель плеера для трека. duration переводит кадры во время
// и может быть nil, тогда время не отображается.
func NewModel(track data.Track, controller *player.Controller, duration func(int) time.Duration) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		track:       track,
		controller:  controller,
		duration:    duration,
		progressBar: prog,
		snapshot:    controller.Snapshot(),
	}
}

// Init инициализирует модель и запускает воспроизведение
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.startPlayback(),
		m.tick(),
	)
}

// Snapshot возвращает последнее известное состояние контроллера
func (m *Model) Snapshot() player.Snapshot {
	return m.snapshot
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case EventMsg:
		m.snapshot = msg.Event.Snapshot
		if msg.Event.Kind == player.EventError {
			m.error = msg.Event.Err
		}
		return m, m.syncProgress()

	case PlaybackErrorMsg:
		m.error = msg.Error
		m.snapshot = m.controller.Snapshot()
		return m, nil

	case tickMsg:
		if msg.model != m {
			return m, nil
		}
		return m, tea.Batch(m.syncProgress(), m.tick())

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// handleKey выполняет команду, если она допустима в текущем состоянии
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return func() tea.Msg {
			return GoBackMsg{}
		}

	case " ":
		switch {
		case m.snapshot.CanPause():
			m.controller.Pause()
		case m.snapshot.CanResume():
			m.controller.Resume()
		default:
			return nil
		}

	case "x":
		if !m.snapshot.CanStop() {
			return nil
		}
		m.controller.Stop()

	case "left", "right":
		if !m.snapshot.CanSeek() {
			return nil
		}
		ratio := m.controller.Progress().Ratio()
		if msg.String() == "left" {
			ratio -= seekStep
		} else {
			ratio += seekStep
		}
		if err := m.controller.Seek(clampRatio(ratio)); err != nil {
			m.error = err
		}

	default:
		return nil
	}

	m.snapshot = m.controller.Snapshot()
	return m.syncProgress()
}

// syncProgress читает позицию контроллера и двигает прогресс-бар
func (m *Model) syncProgress() tea.Cmd {
	m.prog = m.controller.Progress()
	return m.progressBar.SetPercent(m.prog.Ratio())
}

// View отображает модель
func (m *Model) View() string {
	if m.error != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Ошибка воспроизведения"),
			errorStyle.Render(m.error.Error()),
			controlsStyle.Render(strings.Join(m.hints(), " • ")),
		)
	}

	title := titleStyle.Render("🎵 Воспроизведение")

	trackInfo := trackInfoStyle.Render(fmt.Sprintf(
		"🎤 %s\n🎵 %s\n💿 %s\n📄 %s",
		utils.ValueOrDash(m.track.Artist()),
		utils.ValueOrDash(m.track.Title()),
		utils.ValueOrDash(m.track.Album()),
		m.track.Value(data.FieldFilename),
	))

	statusText := statusStyle.Render(formatStatus(m.snapshot.State))

	return fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n%s\n%s\n\n%s",
		title,
		trackInfo,
		statusText,
		m.progressBar.View(),
		m.timeText(),
		controlsStyle.Render(strings.Join(m.hints(), " • ")),
	)
}

// hints возвращает подсказки только для команд, допустимых в текущем состоянии
func (m *Model) hints() []string {
	var hints []string
	if m.snapshot.CanPause() {
		hints = append(hints, "Пробел: пауза")
	}
	if m.snapshot.CanResume() {
		hints = append(hints, "Пробел: продолжить")
	}
	if m.snapshot.CanSeek() {
		hints = append(hints, "←/→: перемотка")
	}
	if m.snapshot.CanStop() {
		hints = append(hints, "x: стоп")
	}
	return append(hints, "q/esc: назад к списку")
}

func (m *Model) timeText() string {
	if m.duration == nil || m.prog.Length == 0 {
		return utils.FormatPercent(m.prog.Ratio())
	}
	return fmt.Sprintf("%s / %s",
		utils.FormatClock(m.duration(m.prog.Position)),
		utils.FormatClock(m.duration(m.prog.Length)))
}

// startPlayback запускает воспроизведение трека
func (m *Model) startPlayback() tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.Play(m.track); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return nil
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{model: m}
	})
}

func formatStatus(state player.State) string {
	switch state {
	case player.Playing:
		return "▶️ Воспроизведение"
	case player.Paused:
		return "⏸️ Пауза"
	default:
		return "⏹️ Остановлено"
	}
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
