package log

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EventLogger receives game events as they happen.
type EventLogger interface {
	Log(event GameEvent)
}

// LogAll forwards every event in order.
func LogAll(l EventLogger, events []GameEvent) {
	for _, e := range events {
		l.Log(e)
	}
}

// Tee sends each event to every logger.
type Tee []EventLogger

func (t Tee) Log(event GameEvent) {
	for _, l := range t {
		l.Log(event)
	}
}

// MemoryLogger keeps the full event history and numbers it. It is safe
// for concurrent use.
type MemoryLogger struct {
	mu     sync.Mutex
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

// Events returns a copy of the history.
func (l *MemoryLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]GameEvent(nil), l.events...)
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// ZapLogger writes events as structured debug entries.
type ZapLogger struct {
	logger *zap.Logger
	viewer int // -1 shows everything
}

func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger, viewer: -1}
}

// NewPlayerZapLogger writes events as seen by viewer.
func NewPlayerZapLogger(logger *zap.Logger, viewer int) *ZapLogger {
	return &ZapLogger{logger: logger, viewer: viewer}
}

func (l *ZapLogger) Log(event GameEvent) {
	if l.viewer >= 0 {
		event = event.Redacted(l.viewer)
	}
	fields := []zap.Field{
		zap.Int("turn", event.Turn),
		zap.Int("player", event.Player),
		zap.Stringer("type", event.Type),
	}
	if event.Phase != "" {
		fields = append(fields, zap.String("phase", event.Phase))
	}
	if event.Card != nil {
		fields = append(fields, zap.Uint32("card", event.Card.ID))
	}
	l.logger.Debug(event.Details, fields...)
}

func playerName(p int) string {
	return fmt.Sprintf("P%d", p+1)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	return fmt.Sprintf("T%-2d %-16s| %s", e.Turn, e.Phase, e.Details)
}

// FormatAll formats all events, one per line.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}
