// Package player содержит контроллер сессии воспроизведения
package player

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
)

var (
	// ErrDecode возвращается, если файл трека нельзя воспроизвести
	ErrDecode = errors.New("ошибка декодирования трека")
	// ErrInvalidRatio возвращается, если позиция перемотки вне диапазона [0, 1]
	ErrInvalidRatio = errors.New("позиция перемотки вне диапазона [0, 1]")
)

// Engine аудиодвижок, который декодирует и воспроизводит один файл
type Engine interface {
	StartPlaying(filename string) error
	Stop()
	Pause()
	Resume()
	// SeekTo переходит к кадру и ставит воспроизведение на паузу
	SeekTo(frame int) error
	// Length возвращает количество кадров загруженного трека или 0
	Length() int
}

// Positioner реализуется движками, которые знают текущий кадр воспроизведения
type Positioner interface {
	Position() int
}

// Controller управляет сессией воспроизведения: сериализует команды
// и проверяет их допустимость в текущем состоянии
type Controller struct {
	mutex     sync.Mutex
	engine    Engine
	logger    *zap.Logger
	state     State
	track     *data.Track
	position  int
	sessionID string
	newID     func() string

	subsMutex sync.Mutex
	subs      map[<-chan Event]chan Event
	closed    bool
}

// Option настраивает Controller
type Option func(*Controller)

// WithLogger задает логгер
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController создает контроллер для одного движка
func NewController(engine Engine, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		logger: zap.NewNop(),
		state:  Stopped,
		newID:  uuid.NewString,
		subs:   make(map[<-chan Event]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play начинает новую сессию. Активная сессия всегда полностью завершается,
// даже если запрошен тот же трек.
func (c *Controller) Play(track data.Track) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.stopInternal()

	if _, err := os.Stat(track.Filename()); err != nil {
		return c.failPlay(track, err)
	}
	if err := c.engine.StartPlaying(track.Filename()); err != nil {
		return c.failPlay(track, err)
	}

	t := track
	c.track = &t
	c.position = 0
	c.state = Playing
	c.sessionID = c.newID()

	c.logger.Info("воспроизведение начато",
		zap.String("session", c.sessionID),
		zap.String("file", track.Filename()))
	c.publish(EventStateChanged, nil)
	return nil
}

// failPlay оставляет контроллер в состоянии Stopped (должен вызываться под мьютексом)
func (c *Controller) failPlay(track data.Track, cause error) error {
	err := fmt.Errorf("%w: %s: %w", ErrDecode, track.Filename(), cause)
	c.logger.Warn("не удалось начать воспроизведение",
		zap.String("file", track.Filename()),
		zap.Error(cause))
	c.publish(EventError, err)
	return err
}

// Pause приостанавливает воспроизведение; вне состояния Playing ничего не делает
func (c *Controller) Pause() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != Playing {
		c.ignored("pause")
		return
	}

	c.engine.Pause()
	if p, ok := c.engine.(Positioner); ok {
		c.position = p.Position()
	}
	c.state = Paused

	c.logger.Debug("пауза", zap.String("session", c.sessionID), zap.Int("position", c.position))
	c.publish(EventStateChanged, nil)
}

// Resume продолжает воспроизведение; вне состояния Paused ничего не делает
func (c *Controller) Resume() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != Paused {
		c.ignored("resume")
		return
	}

	c.engine.Resume()
	c.state = Playing

	c.logger.Debug("воспроизведение продолжено", zap.String("session", c.sessionID))
	c.publish(EventStateChanged, nil)
}

// Stop завершает сессию и освобождает ресурсы движка; из Stopped ничего не делает
func (c *Controller) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state == Stopped {
		c.ignored("stop")
		return
	}

	session := c.sessionID
	c.stopInternal()

	c.logger.Info("воспроизведение остановлено", zap.String("session", session))
	c.publish(EventStateChanged, nil)
}

// stopInternal внутренний метод остановки (должен вызываться под мьютексом)
func (c *Controller) stopInternal() {
	if c.state != Stopped {
		c.engine.Stop()
	}
	c.state = Stopped
	c.track = nil
	c.position = 0
	c.sessionID = ""
}

// Seek переходит к доле ratio длины трека. Движок при перемотке встает на паузу,
// поэтому из состояния Playing воспроизведение сразу продолжается.
// В состоянии Stopped команда игнорируется.
func (c *Controller) Seek(ratio float64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state == Stopped {
		c.ignored("seek")
		return nil
	}
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}

	wasPlaying := c.state == Playing
	frame := targetFrame(ratio, c.engine.Length())

	if err := c.engine.SeekTo(frame); err != nil {
		// Движок мог уже встать на паузу
		if wasPlaying {
			c.engine.Resume()
		}
		c.logger.Warn("ошибка перемотки", zap.Int("frame", frame), zap.Error(err))
		return fmt.Errorf("ошибка перемотки к кадру %d: %w", frame, err)
	}
	c.position = frame
	if wasPlaying {
		c.engine.Resume()
	}

	c.logger.Debug("перемотка",
		zap.String("session", c.sessionID),
		zap.Float64("ratio", ratio),
		zap.Int("frame", frame))
	c.publish(EventSeeked, nil)
	return nil
}

// targetFrame переводит долю в номер кадра из диапазона [0, length)
func targetFrame(ratio float64, length int) int {
	if length <= 0 {
		return 0
	}
	frame := int(math.Round(ratio * float64(length)))
	if frame >= length {
		frame = length - 1
	}
	return frame
}

// State возвращает текущее состояние
func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Snapshot возвращает копию состояния сессии
func (c *Controller) Snapshot() Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		State:     c.state,
		Position:  c.position,
		SessionID: c.sessionID,
	}
	if c.track != nil {
		t := *c.track
		s.Track = &t
	}
	return s
}

// Progress возвращает позицию и длину трека для отрисовки ползунка перемотки
func (c *Controller) Progress() Progress {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state == Stopped {
		return Progress{}
	}

	position := c.position
	if p, ok := c.engine.(Positioner); ok {
		position = p.Position()
	}
	return Progress{
		Position: position,
		Length:   c.engine.Length(),
	}
}

// Close завершает сессию и закрывает каналы всех подписчиков
func (c *Controller) Close() {
	c.Stop()

	c.subsMutex.Lock()
	defer c.subsMutex.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for key, ch := range c.subs {
		close(ch)
		delete(c.subs, key)
	}
}

func (c *Controller) ignored(command string) {
	c.logger.Debug("команда проигнорирована",
		zap.String("command", command),
		zap.String("state", c.state.String()))
}
