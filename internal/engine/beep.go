// Package engine содержит аудиодвижок на основе beep
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"go.uber.org/zap"
)

// ErrNotLoaded возвращается, если команда требует загруженного трека
var ErrNotLoaded = errors.New("трек не загружен")

// ErrUnsupportedFormat возвращается для файлов, которые движок не умеет декодировать
var ErrUnsupportedFormat = errors.New("неподдерживаемый формат")

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
}

// SupportedExtensions возвращает расширения, которые умеет декодировать движок
func SupportedExtensions() []string {
	return []string{".mp3", ".wav"}
}

// Config содержит настройки вывода звука
type Config struct {
	SampleRate      int           // частота дискретизации динамиков
	Buffer          time.Duration // размер буфера динамиков
	ResampleQuality int
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		Buffer:          time.Second / 5,
		ResampleQuality: 4,
	}
}

// trackState объединяет ресурсы одного загруженного трека
type trackState struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	format   beep.Format
}

func (t *trackState) close() {
	if t.streamer != nil {
		t.streamer.Close()
	}
	if t.file != nil {
		// Декодер обычно уже закрыл файл
		_ = t.file.Close()
	}
}

// BeepEngine декодирует и воспроизводит один файл за раз.
// Воспроизведение идет в горутине speaker, методы только меняют управляющее состояние.
type BeepEngine struct {
	mutex       sync.Mutex
	cfg         Config
	logger      *zap.Logger
	initialized bool
	sampleRate  beep.SampleRate
	current     *trackState
	doneChan    chan struct{}
}

// NewBeepEngine создает движок; динамики инициализируются при первом воспроизведении
func NewBeepEngine(cfg Config, logger *zap.Logger) *BeepEngine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if cfg.ResampleQuality <= 0 {
		cfg.ResampleQuality = def.ResampleQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BeepEngine{
		cfg:      cfg,
		logger:   logger,
		doneChan: make(chan struct{}, 1),
	}
}

// Done возвращает канал, который получает сигнал, когда трек доиграл до конца
func (e *BeepEngine) Done() <-chan struct{} {
	return e.doneChan
}

// StartPlaying открывает и декодирует файл и запускает воспроизведение с нулевого кадра
func (e *BeepEngine) StartPlaying(filename string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.stopInternal()

	decode, ok := decoders[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла: %w", err)
	}

	streamer, format, err := decode(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("ошибка декодирования: %w", err)
	}

	// Динамики инициализируются только после успешного декодирования
	if err := e.initSpeaker(); err != nil {
		streamer.Close()
		file.Close()
		return err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != e.sampleRate {
		s = beep.Resample(e.cfg.ResampleQuality, format.SampleRate, e.sampleRate, streamer)
	}

	e.current = &trackState{
		file:     file,
		streamer: streamer,
		ctrl:     &beep.Ctrl{Streamer: s},
		format:   format,
	}

	// Сбрасываем сигнал завершения от предыдущего трека
	select {
	case <-e.doneChan:
	default:
	}

	speaker.Play(beep.Seq(e.current.ctrl, beep.Callback(func() {
		select {
		case e.doneChan <- struct{}{}:
		default:
		}
	})))

	e.logger.Debug("декодирование начато",
		zap.String("file", filename),
		zap.Int("sample_rate", int(format.SampleRate)),
		zap.Int("frames", streamer.Len()))
	return nil
}

// initSpeaker инициализирует динамики один раз (должен вызываться под мьютексом)
func (e *BeepEngine) initSpeaker() error {
	if e.initialized {
		return nil
	}
	rate := beep.SampleRate(e.cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(e.cfg.Buffer)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	e.sampleRate = rate
	e.initialized = true
	return nil
}

// Stop останавливает воспроизведение и закрывает декодер и файл
func (e *BeepEngine) Stop() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.stopInternal()
}

// stopInternal внутренний метод остановки (должен вызываться под мьютексом)
func (e *BeepEngine) stopInternal() {
	if e.current == nil {
		return
	}
	speaker.Clear()
	e.current.close()
	e.current = nil
}

// Pause приостанавливает воспроизведение
func (e *BeepEngine) Pause() {
	e.setPaused(true)
}

// Resume продолжает воспроизведение
func (e *BeepEngine) Resume() {
	e.setPaused(false)
}

func (e *BeepEngine) setPaused(paused bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current == nil {
		return
	}
	speaker.Lock()
	e.current.ctrl.Paused = paused
	speaker.Unlock()
}

// SeekTo переходит к кадру исходного файла. После перемотки воспроизведение на паузе.
func (e *BeepEngine) SeekTo(frame int) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current == nil {
		return ErrNotLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	e.current.ctrl.Paused = true
	length := e.current.streamer.Len()
	if frame < 0 {
		frame = 0
	}
	if frame > length {
		frame = length
	}
	if err := e.current.streamer.Seek(frame); err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// Length возвращает количество кадров загруженного трека
func (e *BeepEngine) Length() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.current.streamer.Len()
}

// Position возвращает текущий кадр загруженного трека
func (e *BeepEngine) Position() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.current.streamer.Position()
}

// Format возвращает формат загруженного трека
func (e *BeepEngine) Format() (beep.Format, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current == nil {
		return beep.Format{}, false
	}
	return e.current.format, true
}

// Duration переводит количество кадров загруженного трека во время
func (e *BeepEngine) Duration(frames int) time.Duration {
	format, ok := e.Format()
	if !ok || format.SampleRate == 0 {
		return 0
	}
	return format.SampleRate.D(frames)
}

// Close останавливает воспроизведение и освобождает динамики
func (e *BeepEngine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.stopInternal()
	if e.initialized {
		speaker.Close()
		e.initialized = false
	}
	return nil
}

var _ io.Closer = (*BeepEngine)(nil)
