package toolbar

import (
	"net/http"
	"strings"
	"sync"
)

// InternalPrefix marks template names belonging to the toolbar's own
// rendering. Panels skip them when capturing to avoid observing themselves.
const InternalPrefix = "debug_toolbar/"

// IsInternal reports whether name identifies one of the toolbar's own
// templates.
func IsInternal(name string) bool {
	return strings.HasPrefix(name, InternalPrefix)
}

// Panel is the surface the toolbar's panel registry drives. One panel
// instance serves exactly one request/response cycle.
type Panel interface {
	NavTitle() string
	NavSubtitle() string
	Title() string
	EnableInstrumentation()
	DisableInstrumentation()
	GenerateStats(r *http.Request)
}

// Config holds the per-request toolbar configuration panels consult when
// producing output.
type Config struct {
	// ShowTemplateContext controls whether the templates panel includes the
	// formatted render context in its report.
	ShowTemplateContext bool
}

// Option mutates a Config before the toolbar is built.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{ShowTemplateContext: true}
}

// WithShowTemplateContext toggles context capture in the templates panel
// report.
func WithShowTemplateContext(show bool) Option {
	return func(c *Config) {
		if c == nil {
			return
		}
		c.ShowTemplateContext = show
	}
}

// Toolbar is the request-scoped carrier of configuration and recorded panel
// stats. Stats are write-once per panel per request; the UI layer reads them
// after GenerateStats has run.
type Toolbar struct {
	cfg Config

	mu    sync.Mutex
	stats map[string]any
}

// New builds a toolbar with default configuration plus any overrides.
func New(options ...Option) *Toolbar {
	cfg := DefaultConfig()
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&cfg)
	}
	return &Toolbar{cfg: cfg, stats: make(map[string]any)}
}

// Config returns the toolbar configuration.
func (t *Toolbar) Config() Config {
	if t == nil {
		return DefaultConfig()
	}
	return t.cfg
}

// RecordStats stores a panel's report. The first write for a panel wins;
// reports are never mutated after recording.
func (t *Toolbar) RecordStats(panel string, v any) {
	if t == nil || panel == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.stats[panel]; exists {
		return
	}
	t.stats[panel] = v
}

// Stats returns the report previously recorded under panel, or nil.
func (t *Toolbar) Stats(panel string) any {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats[panel]
}
