// Package history keeps the bounded, in-memory message history of every chat
// the bot sees. Nothing here survives a restart.
package history

import (
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of messages retained per chat when no
// capacity is configured.
const DefaultCapacity = 100

// DefaultSenderName is used when the platform does not report a display name.
const DefaultSenderName = "User"

// Message is a single stored chat message. Values are never mutated after
// they are appended.
type Message struct {
	SenderID   int64
	SenderName string
	Text       string // empty for non-text content (photos, stickers, ...)
	IsCommand  bool
	Sequence   uint64 // arrival order within the chat, assigned by Store.Append
	Timestamp  time.Time
}

// NewMessage builds a Message from raw transport fields, applying the sender
// name placeholder and the command flag.
func NewMessage(senderID int64, senderName, text string, ts time.Time) Message {
	if strings.TrimSpace(senderName) == "" {
		senderName = DefaultSenderName
	}
	return Message{
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		IsCommand:  strings.HasPrefix(text, "/"),
		Timestamp:  ts,
	}
}

// HasText reports whether the message carries any text.
func (m Message) HasText() bool {
	return m.Text != ""
}

// Stats summarises the store contents.
type Stats struct {
	Chats    int
	Messages int
}

// chatHistory is a fixed-size ring buffer guarded by its own mutex so that
// chats never contend with each other.
type chatHistory struct {
	mu    sync.Mutex
	buf   []Message
	start int
	size  int
	next  uint64
}

func (h *chatHistory) append(msg Message) Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg.Sequence = h.next
	h.next++

	capacity := len(h.buf)
	if h.size < capacity {
		h.buf[(h.start+h.size)%capacity] = msg
		h.size++
		return msg
	}

	// Full: overwrite the oldest slot and advance the head.
	h.buf[h.start] = msg
	h.start = (h.start + 1) % capacity
	return msg
}

func (h *chatHistory) snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

func (h *chatHistory) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Store owns the history of every chat. The zero value is not usable; create
// one with NewStore.
type Store struct {
	mu       sync.RWMutex
	chats    map[int64]*chatHistory
	capacity int
}

// NewStore returns an empty store retaining at most capacity messages per
// chat. A non-positive capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		chats:    make(map[int64]*chatHistory),
		capacity: capacity,
	}
}

// Capacity returns the per-chat limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// Append stores msg at the end of the chat's history, creating the history
// on first use and evicting the oldest message once the chat is full. The
// stored copy, with its sequence index set, is returned.
func (s *Store) Append(chatID int64, msg Message) Message {
	return s.chat(chatID).append(msg)
}

// Snapshot returns a copy of the chat's messages, oldest first. Unknown chats
// yield an empty slice. Later appends never affect a returned snapshot.
func (s *Store) Snapshot(chatID int64) []Message {
	s.mu.RLock()
	h, ok := s.chats[chatID]
	s.mu.RUnlock()
	if !ok {
		return []Message{}
	}
	return h.snapshot()
}

// Stats reports how many chats are tracked and how many messages they hold.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	histories := make([]*chatHistory, 0, len(s.chats))
	for _, h := range s.chats {
		histories = append(histories, h)
	}
	s.mu.RUnlock()

	st := Stats{Chats: len(histories)}
	for _, h := range histories {
		st.Messages += h.len()
	}
	return st
}

func (s *Store) chat(chatID int64) *chatHistory {
	s.mu.RLock()
	h, ok := s.chats[chatID]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.chats[chatID]; ok {
		return h
	}
	h = &chatHistory{buf: make([]Message, s.capacity)}
	s.chats[chatID] = h
	return h
}
