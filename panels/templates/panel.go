package templates

import (
	"fmt"

	"github.com/goliatone/go-renderpanel/pkg/render"
	"github.com/goliatone/go-renderpanel/pkg/toolbar"
)

// PanelName keys this panel's report in the toolbar stats sink.
const PanelName = "templates"

type record struct {
	template   render.Template
	contexts   []string
	processors []string
}

// Panel lists all templates used during processing of one response. A Panel
// instance serves exactly one request cycle and is single-owner: the capture
// receiver runs on the rendering goroutine of that request.
type Panel struct {
	toolbar *toolbar.Toolbar
	opts    Options

	token   int
	records []record
	seen    map[layerKey]string
}

var _ toolbar.Panel = (*Panel)(nil)

// New builds a panel reporting into tb.
func New(tb *toolbar.Toolbar, fns ...OptionFn) *Panel {
	return &Panel{
		toolbar: tb,
		opts:    NewOptions(fns...),
		seen:    make(map[layerKey]string),
	}
}

// EnableInstrumentation connects the capture receiver to the global render
// signal. Callers must pair it with DisableInstrumentation (defer it) so the
// receiver cannot leak into later, unrelated requests.
func (p *Panel) EnableInstrumentation() {
	if p == nil || p.token != 0 {
		return
	}
	p.token = render.TemplateRendered.Connect(p.capture)
}

// DisableInstrumentation disconnects the capture receiver. Safe to call more
// than once.
func (p *Panel) DisableInstrumentation() {
	if p == nil || p.token == 0 {
		return
	}
	render.TemplateRendered.Disconnect(p.token)
	p.token = 0
}

func (p *Panel) capture(ev render.Event) {
	if ev.Template == nil {
		return
	}
	// Skip templates the toolbar renders for itself.
	if toolbar.IsInternal(ev.Template.Name()) {
		return
	}
	p.records = append(p.records, record{
		template:   ev.Template,
		contexts:   p.sanitizeContext(ev.Context),
		processors: ev.Context.ProcessorNames(),
	})
}

// NavTitle returns the static navigation label.
func (p *Panel) NavTitle() string {
	return "Templates"
}

// Title returns the panel title with a live count of rendered templates.
func (p *Panel) Title() string {
	n := 0
	if p != nil {
		n = len(p.records)
	}
	return fmt.Sprintf("Templates (%d rendered)", n)
}

// NavSubtitle returns the name of the first rendered template, or "".
func (p *Panel) NavSubtitle() string {
	if p == nil || len(p.records) == 0 {
		return ""
	}
	return p.records[0].template.Name()
}
