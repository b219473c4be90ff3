package state

import (
	"sync"
	"time"
)

// ChatMessage is a single entry in the session chat sequence.
type ChatMessage struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

// MessageLog holds the ordered chat message sequence. Inbound messages are
// inserted, updated messages replace the entry with the same id in place.
type MessageLog struct {
	mu   sync.RWMutex
	msgs []ChatMessage
}

func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Upsert inserts the message or replaces the existing one with the same id.
func (l *MessageLog) Upsert(msg ChatMessage) {
	if msg.ID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.msgs {
		if l.msgs[i].ID == msg.ID {
			l.msgs[i] = msg
			return
		}
	}
	l.msgs = append(l.msgs, msg)
}

// Messages returns a copy of the sequence in arrival order.
func (l *MessageLog) Messages() []ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ChatMessage, len(l.msgs))
	copy(out, l.msgs)
	return out
}
