package render

import (
	"sort"
	"sync"
)

// Event is the payload delivered to signal receivers for each render.
type Event struct {
	Template Template
	Context  *Context
}

// Receiver observes render events. Receivers run synchronously on the
// rendering goroutine and must not panic.
type Receiver func(Event)

// Signal is a process-global notification channel. Receivers are keyed by the
// token Connect returns so they can be detached again; panels connect at the
// start of a request cycle and must disconnect at its end, error paths
// included, or the receiver keeps observing unrelated requests.
type Signal struct {
	mu        sync.RWMutex
	receivers map[int]Receiver
	next      int
}

// NewSignal creates an empty signal.
func NewSignal() *Signal {
	return &Signal{receivers: make(map[int]Receiver)}
}

// Connect registers fn and returns the token that detaches it again.
func (s *Signal) Connect(fn Receiver) int {
	if s == nil || fn == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	token := s.next
	s.receivers[token] = fn
	return token
}

// Disconnect removes the receiver registered under token. Unknown tokens are
// ignored.
func (s *Signal) Disconnect(token int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receivers, token)
}

// Send delivers ev to every connected receiver in connection order.
func (s *Signal) Send(ev Event) {
	if s == nil {
		return
	}
	s.mu.RLock()
	tokens := make([]int, 0, len(s.receivers))
	for token := range s.receivers {
		tokens = append(tokens, token)
	}
	sort.Ints(tokens)
	receivers := make([]Receiver, 0, len(tokens))
	for _, token := range tokens {
		receivers = append(receivers, s.receivers[token])
	}
	s.mu.RUnlock()

	for _, fn := range receivers {
		fn(ev)
	}
}

// TemplateRendered fires once for every template render performed by an
// instrumented backend, nested includes considered.
var TemplateRendered = NewSignal()
