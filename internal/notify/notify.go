// Package notify carries user-facing notices from the sync layer to
// whatever renders them.
package notify

import (
	"sync"

	applog "easybake/internal/log"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level               `json:"level"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type Notifier interface {
	Notify(n Notice)
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) {}

const maxBuffered = 20

// Buffer queues notices for one session until the next response drains them.
// The oldest notice is dropped once the buffer is full.
type Buffer struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *Buffer) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.notices) == maxBuffered {
		applog.Debug().Str("message", b.notices[0].Message).Msg("notify: buffer full, dropping oldest")
		b.notices = b.notices[1:]
	}
	b.notices = append(b.notices, n)
}

// Drain returns the queued notices and empties the buffer.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notices)
}
