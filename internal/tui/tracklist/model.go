// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/track"
	"github.com/hazadus/go-jukebox/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	statusStyle       = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("196"))
	nowPlayingStyle   = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("42"))
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	Track data.Track
}

// ChangeDirMsg отправляется, когда пользователь хочет сменить директорию
type ChangeDirMsg struct{}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	number int
	track  data.Track
}

func (i trackItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.track.Artist(), i.track.Title(), i.track.Value(data.FieldFilename))
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	fmt.Fprint(w, renderRow(i, index == m.Index()))
}

// renderRow форматирует строку таблицы: № | Исполнитель | Название | Альбом
func renderRow(i trackItem, selected bool) string {
	title := i.track.Title()
	if title == "" && i.track.Artist() == "" {
		title = i.track.Value(data.FieldFilename)
	}

	str := fmt.Sprintf("%-4d %-24s %-36s %s",
		i.number,
		utils.TruncateString(utils.ValueOrDash(i.track.Artist()), 24),
		utils.TruncateString(utils.ValueOrDash(title), 36),
		utils.TruncateString(utils.ValueOrDash(i.track.Album()), 24))

	if selected {
		return selectedItemStyle.Render("> " + str)
	}
	return itemStyle.Render(str)
}

// Model представляет модель экрана списка треков
type Model struct {
	list       list.Model
	catalog    data.Catalog
	field      string
	status     string
	nowPlaying string
	quitting   bool
}

// NewModel создает модель списка треков, отсортированного по первому полю
func NewModel(catalog data.Catalog) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{
		list:  l,
		field: data.DefaultField(),
	}
	m.SetCatalog(catalog, true)
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetCatalog заменяет каталог. При resetSort сортировка возвращается к первому полю.
func (m *Model) SetCatalog(catalog data.Catalog, resetSort bool) {
	m.catalog = catalog
	if resetSort {
		m.field = data.DefaultField()
	}
	m.status = ""
	m.refresh()
}

// Catalog возвращает текущий каталог
func (m *Model) Catalog() data.Catalog {
	return m.catalog
}

// Field возвращает текущее поле сортировки
func (m *Model) Field() string {
	return m.field
}

// SetStatus показывает сообщение под списком (например, ошибку загрузки)
func (m *Model) SetStatus(status string) {
	m.status = status
}

// SetNowPlaying показывает текущий трек под списком
func (m *Model) SetNowPlaying(text string) {
	m.nowPlaying = text
}

// Items возвращает треки в порядке отображения
func (m *Model) Items() []data.Track {
	items := m.list.Items()
	tracks := make([]data.Track, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(trackItem); ok {
			tracks = append(tracks, ti.track)
		}
	}
	return tracks
}

// CycleSort переключает сортировку на следующее поле
func (m *Model) CycleSort() {
	fields := data.Fields()
	next := 0
	for i, f := range fields {
		if f == m.field {
			next = (i + 1) % len(fields)
			break
		}
	}
	m.field = fields[next]
	m.refresh()
}

// refresh пересортировывает каталог и обновляет элементы списка
func (m *Model) refresh() {
	// Поле берется из data.Fields, поэтому ошибки быть не может
	tracks, _ := track.SortByField(m.catalog, m.field)

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{number: i + 1, track: t}
	}
	m.list.SetItems(items)

	dir := m.catalog.Dir()
	if dir == "" {
		dir = "-"
	}
	m.list.Title = fmt.Sprintf("Треки: %s (сортировка: %s)", dir, m.field)
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6) // Оставляем место для статуса и справки
		return m, nil

	case tea.KeyMsg:
		// Во время ввода фильтра все клавиши принадлежат списку
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				return m, func() tea.Msg {
					return TrackSelectedMsg{Track: item.track}
				}
			}
			return m, nil

		case "s":
			m.CycleSort()
			return m, nil

		case "d":
			return m, func() tea.Msg {
				return ChangeDirMsg{}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")

	if m.nowPlaying != "" {
		b.WriteString(nowPlayingStyle.Render("♪ " + m.nowPlaying))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: воспроизвести • s: сортировка • d: директория • q: выход"))
	return b.String()
}
