package tracklist

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-jukebox/internal/data"
)

func testCatalog() data.Catalog {
	return data.NewCatalog("/music", []data.Track{
		data.NewTrack("/music/b.mp3", map[string]string{"artist": "Beta", "title": "Alpha song"}),
		data.NewTrack("/music/a.mp3", map[string]string{"artist": "Alpha", "title": "Zeta song"}),
		data.NewTrack("/music/c.mp3", nil),
	}, time.Now())
}

func filenames(tracks []data.Track) string {
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.Value(data.FieldFilename)
	}
	return strings.Join(names, ",")
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelSortsByFirstField(t *testing.T) {
	model := NewModel(testCatalog())

	if model.Field() != data.DefaultField() {
		t.Errorf("Ожидалась сортировка по %s, получено %s", data.DefaultField(), model.Field())
	}
	// Пустой исполнитель идет первым
	if got := filenames(model.Items()); got != "c.mp3,a.mp3,b.mp3" {
		t.Errorf("Неожиданный порядок: %s", got)
	}
}

func TestCycleSortKey(t *testing.T) {
	model := NewModel(testCatalog())

	model, _ = model.Update(key("s"))
	if model.Field() != data.FieldTitle {
		t.Fatalf("Ожидалась сортировка по title, получено %s", model.Field())
	}
	if got := filenames(model.Items()); got != "c.mp3,b.mp3,a.mp3" {
		t.Errorf("Неожиданный порядок по title: %s", got)
	}

	// Полный круг возвращает к первому полю
	for i := 1; i < len(data.Fields()); i++ {
		model.CycleSort()
	}
	if model.Field() != data.DefaultField() {
		t.Errorf("Ожидался возврат к %s, получено %s", data.DefaultField(), model.Field())
	}
}

func TestSetCatalogResetsSort(t *testing.T) {
	model := NewModel(testCatalog())
	model.CycleSort()
	model.SetStatus("ошибка")

	model.SetCatalog(testCatalog(), false)
	if model.Field() != data.FieldTitle {
		t.Error("Обновление без смены директории должно сохранять сортировку")
	}

	model.SetCatalog(data.NewCatalog("/other", nil, time.Now()), true)
	if model.Field() != data.DefaultField() {
		t.Error("Смена директории должна сбрасывать сортировку")
	}
	if len(model.Items()) != 0 {
		t.Errorf("Ожидался пустой список, получено %d", len(model.Items()))
	}
	if model.status != "" {
		t.Error("Новый каталог должен сбрасывать статус")
	}
}

func TestEnterSelectsTrack(t *testing.T) {
	model := NewModel(testCatalog())

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Ожидалась команда выбора трека")
	}

	msg, ok := cmd().(TrackSelectedMsg)
	if !ok {
		t.Fatalf("Ожидалось сообщение TrackSelectedMsg, получено %T", cmd())
	}
	if msg.Track.Value(data.FieldFilename) != "c.mp3" {
		t.Errorf("Ожидался первый трек списка, получено %s", msg.Track.Filename())
	}
}

func TestEnterOnEmptyList(t *testing.T) {
	model := NewModel(data.Catalog{})

	if _, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("На пустом списке Enter ничего не должен делать")
	}
}

func TestChangeDirKey(t *testing.T) {
	model := NewModel(testCatalog())

	_, cmd := model.Update(key("d"))
	if cmd == nil {
		t.Fatal("Ожидалась команда смены директории")
	}
	if _, ok := cmd().(ChangeDirMsg); !ok {
		t.Errorf("Ожидалось сообщение ChangeDirMsg, получено %T", cmd())
	}
}

func TestViewShowsStatusAndNowPlaying(t *testing.T) {
	model := NewModel(testCatalog())
	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	model.SetStatus("директория недоступна")
	model.SetNowPlaying("Alpha - Zeta song")

	view := model.View()
	for _, want := range []string{"директория недоступна", "Alpha - Zeta song", "/music"} {
		if !strings.Contains(view, want) {
			t.Errorf("Ожидалось %q в отображении", want)
		}
	}
}

func TestRenderRowFallsBackToFilename(t *testing.T) {
	row := renderRow(trackItem{number: 3, track: data.NewTrack("/music/untagged.mp3", nil)}, false)

	if !strings.Contains(row, "untagged.mp3") {
		t.Errorf("Для трека без тегов ожидалось имя файла: %q", row)
	}
	if !strings.Contains(row, "3") {
		t.Errorf("Ожидался номер строки: %q", row)
	}
}
