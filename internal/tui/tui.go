// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-jukebox/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	deps app.Deps
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(deps app.Deps) *App {
	return &App{deps: deps}
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	model := app.NewMainModel(tuiApp.deps)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	// Останавливаем воспроизведение и наблюдателя после завершения программы
	tuiApp.deps.Controller.Stop()
	model.Close()

	return err
}
