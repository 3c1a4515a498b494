package sqltrack

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueryTriggered is the panic value raised by Guard when a query executes
// while recording is disabled. Display-formatting code disables recording
// around value coercion precisely so that coercing a deferred query surfaces
// as this sentinel instead of a silent database round trip.
var ErrQueryTriggered = errors.New("sqltrack: query triggered while recording disabled")

var recording atomic.Bool

func init() {
	recording.Store(true)
}

// Recording reports whether query recording is currently enabled.
func Recording() bool {
	return recording.Load()
}

// SetRecording toggles query recording process-wide. Callers that disable it
// must restore it via defer on every exit path; leaving it off masks
// accidental database access for the remainder of the process.
func SetRecording(on bool) {
	recording.Store(on)
}

// Guard must be called by query execution paths before touching the
// database. It panics with ErrQueryTriggered when recording is off.
func Guard() {
	if !recording.Load() {
		panic(ErrQueryTriggered)
	}
}

// DeferredQuery is implemented by lazy query values: anything that holds an
// unexecuted database query and can describe itself without running it.
type DeferredQuery interface {
	// QueryKind names the query shape, e.g. "QuerySet" or "RawQuerySet".
	QueryKind() string
	// Entity names the target entity, e.g. "auth.User".
	Entity() string
}

var (
	logMu    sync.Mutex
	executed []string
)

// Record appends one executed query to the shared log consumed by the SQL
// panel.
func Record(query string) {
	Guard()
	logMu.Lock()
	defer logMu.Unlock()
	executed = append(executed, query)
}

// Queries returns a copy of the recorded query log.
func Queries() []string {
	logMu.Lock()
	defer logMu.Unlock()
	out := make([]string, len(executed))
	copy(out, executed)
	return out
}

// Reset clears the recorded query log.
func Reset() {
	logMu.Lock()
	defer logMu.Unlock()
	executed = nil
}
