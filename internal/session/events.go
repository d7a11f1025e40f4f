package session

import "sync"

// EventKind names a state change.
type EventKind string

const (
	EventFilesUpdated     EventKind = "files_updated"
	EventTopicsUpdated    EventKind = "topics_updated"
	EventQuestionsUpdated EventKind = "questions_updated"
	EventImageRendered    EventKind = "image_rendered"
	EventImageCleared     EventKind = "image_cleared"
)

// Event describes a state change. Image events carry the item ids; a
// rendered event with empty ImageData means the render failed.
type Event struct {
	Kind       EventKind `json:"type"`
	QuestionID string    `json:"questionId,omitempty"`
	PartID     string    `json:"partId,omitempty"`
	ImageData  string    `json:"imageData,omitempty"`
}

type broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]func(Event))}
}

func (b *broadcaster) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// emit calls every subscriber synchronously. Subscribers must not call
// back into the session.
func (b *broadcaster) emit(ev Event) {
	b.mu.Lock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
