package render

import "net/http"

// Processor contributes request-derived values to a render context. The name
// is recorded on the context when the processor runs so diagnostic panels can
// report which processors were active for a given render.
type Processor struct {
	Name string
	Fn   func(r *http.Request) map[string]any
}

// Context is the layered data stack a template is rendered against. Layers
// are kept in application order; consumers walking the stack are expected to
// skip layers that are not mapping-like. A Context is built per render and is
// not safe for concurrent mutation.
type Context struct {
	layers         []any
	processorNames []string
}

// NewContext builds a context from the given layers, in order.
func NewContext(layers ...any) *Context {
	c := &Context{}
	for _, layer := range layers {
		c.Push(layer)
	}
	return c
}

// Push appends one layer to the stack. Nil layers are ignored.
func (c *Context) Push(layer any) {
	if c == nil || layer == nil {
		return
	}
	c.layers = append(c.layers, layer)
}

// Layers returns the layer stack in application order. The returned slice is
// the context's own backing storage; callers must not mutate it.
func (c *Context) Layers() []any {
	if c == nil {
		return nil
	}
	return c.layers
}

// ProcessorNames returns the names of the processors that ran when the
// context was bound to a request, in execution order, or nil when the context
// was never request-bound.
func (c *Context) ProcessorNames() []string {
	if c == nil {
		return nil
	}
	return c.processorNames
}

// BindRequest runs every processor against r, pushes their merged updates as
// a single layer, and pushes the request itself as the final layer so that
// templates (and observers) can reach it under the "request" key.
func (c *Context) BindRequest(r *http.Request, processors []Processor) {
	if c == nil || r == nil {
		return
	}

	updates := map[string]any{}
	for _, processor := range processors {
		if processor.Fn == nil {
			continue
		}
		c.processorNames = append(c.processorNames, processor.Name)
		for key, value := range processor.Fn(r) {
			updates[key] = value
		}
	}
	if len(updates) > 0 {
		c.Push(updates)
	}
	c.Push(map[string]any{"request": r})
}
