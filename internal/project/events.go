package project

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventColorSelected  EventKind = "color:selected"
	EventActionSelected EventKind = "action:selected"
	EventFrameSelected  EventKind = "frame:selected"
	EventLayerSelected  EventKind = "layer:selected"
	EventActionAdded    EventKind = "action:added"
	EventFrameAdded     EventKind = "frame:added"
	EventLayerAdded     EventKind = "layer:added"
	EventActionDeleted  EventKind = "action:deleted"
	EventFrameDeleted   EventKind = "frame:deleted"
	EventLayerDeleted   EventKind = "layer:deleted"
	EventActionRenamed  EventKind = "action:renamed"
	EventLayerRenamed   EventKind = "layer:renamed"
	EventLayerVisible   EventKind = "layer:visibility"
	EventCanvasResized  EventKind = "canvas:resized"
	EventPixelsChanged  EventKind = "pixels:changed"
	EventProjectLoaded  EventKind = "project:loaded"
	EventProjectRenamed EventKind = "project:renamed"
)

// Event is published after a mutation has completed and the project is
// consistent again.
type Event struct {
	Kind EventKind `json:"kind"`
	// ID is the entity the event is about, if any.
	ID string `json:"id,omitempty"`
	// Value is the color index for EventColorSelected and the number of
	// pixels touched for EventPixelsChanged.
	Value int `json:"value"`
}

// Listener receives store events. Listeners run synchronously on the
// calling goroutine and must not call back into the store.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(ev Event) {
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(ev)
	}
}
