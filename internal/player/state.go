package player

import "github.com/hazadus/go-jukebox/internal/data"

// State представляет состояние сессии воспроизведения
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot копия состояния сессии для отображения
type Snapshot struct {
	State     State
	Track     *data.Track // nil, если сессии нет
	Position  int         // последняя известная позиция в кадрах
	SessionID string
}

// HasTrack сообщает, что в движок загружен трек
func (s Snapshot) HasTrack() bool {
	return s.Track != nil
}

// CanPause, CanResume, CanStop и CanSeek повторяют таблицу переходов;
// оболочка использует их, чтобы решать, какие команды показывать
func (s Snapshot) CanPause() bool  { return s.State == Playing }
func (s Snapshot) CanResume() bool { return s.State == Paused }
func (s Snapshot) CanStop() bool   { return s.State != Stopped }
func (s Snapshot) CanSeek() bool   { return s.State != Stopped }

// Progress позиция и длина трека в кадрах
type Progress struct {
	Position int
	Length   int
}

// Ratio возвращает долю проигранного в диапазоне [0, 1]
func (p Progress) Ratio() float64 {
	if p.Length <= 0 {
		return 0
	}
	r := float64(p.Position) / float64(p.Length)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// EventKind тип уведомления контроллера
type EventKind int

const (
	// EventStateChanged изменилось состояние или трек
	EventStateChanged EventKind = iota
	// EventSeeked изменилась позиция
	EventSeeked
	// EventError команда завершилась ошибкой
	EventError
)

// Event уведомление об изменении сессии
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Err      error
}

const subscriberBuffer = 8

// Subscribe возвращает канал уведомлений. Контроллер никогда не блокируется
// на медленном подписчике: при переполнении вытесняется самое старое событие.
func (c *Controller) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	c.subsMutex.Lock()
	defer c.subsMutex.Unlock()
	if c.closed {
		close(ch)
		return ch
	}
	c.subs[ch] = ch
	return ch
}

// Unsubscribe отписывает и закрывает канал
func (c *Controller) Unsubscribe(ch <-chan Event) {
	c.subsMutex.Lock()
	defer c.subsMutex.Unlock()
	if sub, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(sub)
	}
}

// publish рассылает событие (должен вызываться под мьютексом контроллера)
func (c *Controller) publish(kind EventKind, err error) {
	ev := Event{
		Kind:     kind,
		Snapshot: c.snapshot(),
		Err:      err,
	}

	c.subsMutex.Lock()
	defer c.subsMutex.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
