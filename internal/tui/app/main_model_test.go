package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/track"
	"github.com/hazadus/go-jukebox/internal/tui/dirprompt"
	tuiPlayer "github.com/hazadus/go-jukebox/internal/tui/player"
	"github.com/hazadus/go-jukebox/internal/tui/tracklist"
)

// stubEngine минимальный движок для тестов
type stubEngine struct{}

func (stubEngine) StartPlaying(string) error { return nil }
func (stubEngine) Stop()                     {}
func (stubEngine) Pause()                    {}
func (stubEngine) Resume()                   {}
func (stubEngine) SeekTo(int) error          { return nil }
func (stubEngine) Length() int               { return 100 }

// fakeBuilder возвращает заранее заданные каталоги по директории
type fakeBuilder struct {
	catalogs map[string][]data.Track
}

func (b *fakeBuilder) Build(_ context.Context, dir string) (data.Catalog, error) {
	tracks, ok := b.catalogs[dir]
	if !ok {
		return data.Catalog{}, track.ErrDirectoryUnavailable
	}
	return data.NewCatalog(dir, tracks, time.Now()), nil
}

func newTestModel(t *testing.T) (*MainModel, *player.Controller, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	controller := player.NewController(stubEngine{})
	t.Cleanup(controller.Close)

	builder := &fakeBuilder{catalogs: map[string][]data.Track{
		dir: {data.NewTrack(path, map[string]string{"artist": "Test Artist", "title": "Test Title"})},
		"/other": {
			data.NewTrack("/other/a.mp3", nil),
			data.NewTrack("/other/b.mp3", nil),
		},
	}}

	model := NewMainModel(Deps{Builder: builder, Controller: controller, Dir: dir})
	t.Cleanup(model.Close)
	return model, controller, dir
}

// load выполняет построение каталога синхронно
func load(t *testing.T, m *MainModel, dir string, changed bool) {
	t.Helper()
	msg := m.loadCatalog(dir, changed)()
	m.Update(msg)
}

func TestMainModelRouting(t *testing.T) {
	model, _, dir := newTestModel(t)
	load(t, model, dir, true)

	if model.currentScreen != TracklistScreen {
		t.Errorf("Ожидался экран списка треков, получено %v", model.currentScreen)
	}
	if model.playerModel != nil {
		t.Error("Модель плеера не должна существовать до выбора трека")
	}

	selected := model.tracklistModel.Items()[0]
	updatedModel, cmd := model.Update(tracklist.TrackSelectedMsg{Track: selected})
	model = updatedModel.(*MainModel)

	if model.currentScreen != PlayerScreen || model.playerModel == nil {
		t.Fatal("Ожидался экран плеера после выбора трека")
	}
	if cmd == nil {
		t.Error("Ожидалась команда запуска воспроизведения")
	}

	updatedModel, _ = model.Update(tuiPlayer.GoBackMsg{})
	model = updatedModel.(*MainModel)

	if model.currentScreen != TracklistScreen || model.playerModel != nil {
		t.Error("Ожидался возврат к списку треков")
	}

	if _, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("Ожидалась команда tea.Quit после Ctrl+C")
	}
}

func TestInitialCatalogLoad(t *testing.T) {
	model, _, dir := newTestModel(t)
	load(t, model, dir, true)

	if model.Dir() != dir {
		t.Errorf("Ожидалась директория %s, получено %s", dir, model.Dir())
	}
	if len(model.tracklistModel.Items()) != 1 {
		t.Errorf("Ожидался 1 трек, получено %d", len(model.tracklistModel.Items()))
	}
}

func TestChangeDirectory(t *testing.T) {
	model, _, dir := newTestModel(t)
	load(t, model, dir, true)
	model.tracklistModel.CycleSort()

	model.Update(tracklist.ChangeDirMsg{})
	if model.currentScreen != DirPromptScreen || model.promptModel == nil {
		t.Fatal("Ожидался экран выбора директории")
	}
	if model.promptModel.Value() != dir {
		t.Errorf("Поле должно содержать текущую директорию, получено %q", model.promptModel.Value())
	}

	_, cmd := model.Update(dirprompt.DirChosenMsg{Dir: "/other"})
	if model.currentScreen != TracklistScreen {
		t.Error("После выбора ожидался экран списка треков")
	}
	model.Update(cmd())

	if model.Dir() != "/other" {
		t.Errorf("Ожидалась директория /other, получено %s", model.Dir())
	}
	if len(model.tracklistModel.Items()) != 2 {
		t.Errorf("Ожидалось 2 трека, получено %d", len(model.tracklistModel.Items()))
	}
	if model.tracklistModel.Field() != data.DefaultField() {
		t.Error("Смена директории должна сбрасывать сортировку на первое поле")
	}
}

func TestChangeDirectoryStopsSession(t *testing.T) {
	model, controller, dir := newTestModel(t)
	load(t, model, dir, true)

	if err := controller.Play(model.tracklistModel.Items()[0]); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}

	_, cmd := model.Update(dirprompt.DirChosenMsg{Dir: "/other"})
	if controller.State() != player.Playing {
		t.Error("До загрузки нового каталога сессия должна продолжаться")
	}
	model.Update(cmd())

	if model.Dir() != "/other" {
		t.Fatalf("Ожидалась директория /other, получено %s", model.Dir())
	}
	if controller.State() != player.Stopped || controller.Snapshot().HasTrack() {
		t.Errorf("Смена директории должна останавливать сессию, состояние %s", controller.State())
	}
}

func TestChangeDirectoryFailureKeepsCatalog(t *testing.T) {
	model, controller, dir := newTestModel(t)
	load(t, model, dir, true)

	if err := controller.Play(model.tracklistModel.Items()[0]); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}

	_, cmd := model.Update(dirprompt.DirChosenMsg{Dir: "/missing"})
	msg := cmd().(CatalogLoadedMsg)
	if !errors.Is(msg.Err, track.ErrDirectoryUnavailable) {
		t.Fatalf("Ожидалась ошибка ErrDirectoryUnavailable, получено %v", msg.Err)
	}
	model.Update(msg)

	if model.Dir() != dir {
		t.Errorf("Директория не должна меняться при ошибке, получено %s", model.Dir())
	}
	if len(model.tracklistModel.Items()) != 1 {
		t.Error("Предыдущий каталог должен сохраниться")
	}
	if !strings.Contains(model.View(), "Ошибка") {
		t.Error("Ожидалось сообщение об ошибке в списке")
	}
	if controller.State() != player.Playing {
		t.Errorf("Неудачная смена директории не должна останавливать сессию, состояние %s", controller.State())
	}
}

func TestStaleRefreshIgnored(t *testing.T) {
	model, _, dir := newTestModel(t)
	load(t, model, "/other", true)

	// Обновление старой директории не должно подменять каталог
	load(t, model, dir, false)
	if len(model.tracklistModel.Items()) != 2 {
		t.Errorf("Ожидался каталог /other, получено %d треков", len(model.tracklistModel.Items()))
	}
}

func TestDirPromptCancel(t *testing.T) {
	model, _, _ := newTestModel(t)

	model.Update(tracklist.ChangeDirMsg{})
	model.Update(dirprompt.GoBackMsg{})

	if model.currentScreen != TracklistScreen || model.promptModel != nil {
		t.Error("Ожидался возврат к списку после отмены")
	}
}

func TestTrackDoneStopsSession(t *testing.T) {
	model, controller, dir := newTestModel(t)
	load(t, model, dir, true)

	if err := controller.Play(model.tracklistModel.Items()[0]); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}

	done := make(chan struct{}, 1)
	done <- struct{}{}
	model.deps.Done = done

	msg := model.listenDone()()
	if msg.(trackDoneMsg).sessionID != controller.Snapshot().SessionID {
		t.Fatalf("Сигнал должен нести текущую сессию, получено %+v", msg)
	}

	model.Update(msg)
	if controller.State() != player.Stopped {
		t.Errorf("После конца трека ожидалось состояние stopped, получено %s", controller.State())
	}
}

func TestStaleTrackDoneIgnored(t *testing.T) {
	model, controller, dir := newTestModel(t)
	load(t, model, dir, true)
	selected := model.tracklistModel.Items()[0]

	if err := controller.Play(selected); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}
	finished := trackDoneMsg{sessionID: controller.Snapshot().SessionID}

	// Новый трек запущен до обработки сигнала о конце предыдущего
	if err := controller.Play(selected); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}
	model.Update(finished)

	if controller.State() != player.Playing {
		t.Errorf("Сигнал прошлой сессии не должен останавливать новую, состояние %s", controller.State())
	}
}

func TestEventsUpdateNowPlaying(t *testing.T) {
	model, controller, dir := newTestModel(t)
	load(t, model, dir, true)

	if err := controller.Play(model.tracklistModel.Items()[0]); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}

	msg := model.listenEvents()()
	model.Update(msg)

	if !strings.Contains(model.View(), "Test Artist - Test Title") {
		t.Errorf("Ожидался текущий трек в списке:\n%s", model.View())
	}
	if model.snapshot.State != player.Playing {
		t.Errorf("Ожидалось состояние playing, получено %s", model.snapshot.State)
	}
}

func TestWatcherRestartsOnDirChange(t *testing.T) {
	model, _, dir := newTestModel(t)

	var watched []string
	model.deps.Watch = func(ctx context.Context, d string) (<-chan struct{}, error) {
		watched = append(watched, d)
		ch := make(chan struct{}, 1)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch, nil
	}

	load(t, model, dir, true)
	first := model.watchCancel
	load(t, model, "/other", true)

	if len(watched) != 2 || watched[1] != "/other" {
		t.Errorf("Ожидалось слежение за двумя директориями, получено %v", watched)
	}
	if first == nil || model.watchCancel == nil {
		t.Error("Ожидался активный наблюдатель")
	}

	// Изменение файлов перестраивает текущую директорию без сброса сортировки
	model.tracklistModel.CycleSort()
	_, cmd := model.Update(dirChangedMsg{changes: make(chan struct{})})
	if cmd == nil {
		t.Fatal("Ожидалась команда перестроения каталога")
	}
	model.Update(model.loadCatalog(model.Dir(), false)())
	if model.tracklistModel.Field() == data.DefaultField() {
		t.Error("Обновление без смены директории должно сохранять сортировку")
	}
}

func TestMainModelView(t *testing.T) {
	model, _, dir := newTestModel(t)
	load(t, model, dir, true)

	if model.View() == "" {
		t.Error("Ожидалось непустое отображение списка треков")
	}

	model.Update(tracklist.TrackSelectedMsg{Track: model.tracklistModel.Items()[0]})
	if model.View() == "" {
		t.Error("Ожидалось непустое отображение плеера")
	}

	model.currentScreen = ScreenType(999)
	if view := model.View(); view != "Неизвестный экран" {
		t.Errorf("Ожидалось 'Неизвестный экран', получено '%s'", view)
	}
}
