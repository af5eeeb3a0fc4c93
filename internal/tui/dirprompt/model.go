// Package dirprompt содержит модель экрана выбора директории с треками
package dirprompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
)

// DirChosenMsg отправляется, когда пользователь подтвердил директорию
type DirChosenMsg struct {
	Dir string
}

// GoBackMsg отправляется при отмене
type GoBackMsg struct{}

// Model представляет модель экрана выбора директории
type Model struct {
	input textinput.Model
	err   string
}

// NewModel создает модель, заполненную текущей директорией
func NewModel(current string) *Model {
	input := textinput.New()
	input.Placeholder = "Путь к директории с треками"
	input.SetValue(current)
	input.Focus()
	input.PromptStyle = focusedStyle
	input.TextStyle = focusedStyle

	return &Model{input: input}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Value возвращает введенный путь
func (m *Model) Value() string {
	return m.input.Value()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "enter":
			dir := strings.TrimSpace(m.input.Value())
			if dir == "" {
				m.err = "Путь не может быть пустым"
				return m, nil
			}
			m.err = ""
			return m, func() tea.Msg {
				return DirChosenMsg{Dir: dir}
			}
		}

	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 20
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Смена директории"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Директория:"))
	b.WriteString(" ")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: загрузить • Esc: отмена"))
	return b.String()
}
