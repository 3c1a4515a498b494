package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-renderpanel/pkg/render"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globals    map[string]any
	processors []render.Processor
	filters    map[string]pongo2.FilterFunction
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default ".html" template extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobals seeds values available to every template as the outermost
// context layer.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithProcessors registers context processors run whenever a render is bound
// to an HTTP request.
func WithProcessors(processors ...render.Processor) Option {
	return func(cfg *config) {
		cfg.processors = append(cfg.processors, processors...)
	}
}

// WithFilter registers a pongo2 filter when the engine loads.
func WithFilter(name string, fn pongo2.FilterFunction) Option {
	return func(cfg *config) {
		name = strings.TrimSpace(name)
		if name == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]pongo2.FilterFunction)
		}
		cfg.filters[name] = fn
	}
}

// WithGoTemplateOptions exists for drop-in compatibility with callers
// configured for the go-template engine and is currently a no-op.
func WithGoTemplateOptions(_ ...gotemplatepkg.Option) Option {
	return func(*config) {}
}

// Engine renders pongo2 templates and reports every render through
// render.TemplateRendered.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*Template

	baseDir    string
	files      fs.FS
	tplExt     string
	globals    map[string]any
	processors []render.Processor
}

var (
	_ render.Metadata     = (*Engine)(nil)
	_ render.SourceLoader = (*Engine)(nil)
)

// New constructs an Engine from the provided options. One of WithBaseDir or
// WithFS is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".html"}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("pongo: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("renderpanel", loaders...),
		templates:   make(map[string]*Template),
		baseDir:     cfg.baseDir,
		files:       cfg.templates,
		tplExt:      cfg.extension,
		globals:     cfg.globals,
		processors:  cfg.processors,
	}

	for name, fn := range cfg.filters {
		if pongo2.FilterExists(name) {
			continue
		}
		if err := pongo2.RegisterFilter(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register filter %q: %w", name, err)
		}
	}

	return engine, nil
}

// Dirs returns the directories the engine searches for template files.
func (e *Engine) Dirs() []string {
	if e == nil || e.baseDir == "" {
		return nil
	}
	return []string{e.baseDir}
}

// Processors returns the registered context processors.
func (e *Engine) Processors() []render.Processor {
	if e == nil {
		return nil
	}
	return e.processors
}

// Source returns the raw source of the named template.
func (e *Engine) Source(name string) (string, error) {
	if e == nil {
		return "", errors.New("pongo: engine is nil")
	}
	path, err := e.templatePath(name)
	if err != nil {
		return "", err
	}
	if e.baseDir != "" {
		raw, err := os.ReadFile(filepath.Join(e.baseDir, path))
		if err != nil {
			return "", fmt.Errorf("pongo: read template %q: %w", name, err)
		}
		return string(raw), nil
	}
	raw, err := fs.ReadFile(e.files, path)
	if err != nil {
		return "", fmt.Errorf("pongo: read template %q: %w", name, err)
	}
	return string(raw), nil
}

// Render renders the named template against data, fanning the output to any
// provided writers.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	return e.render(nil, name, data, out...)
}

// RenderHTTP renders the named template bound to an HTTP request: context
// processors run first and the request itself joins the context stack.
func (e *Engine) RenderHTTP(r *http.Request, name string, data any, out ...io.Writer) (string, error) {
	return e.render(r, name, data, out...)
}

// RenderString parses and renders templateContent directly. String templates
// have no origin.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}
	compiled, err := e.templateSet.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("pongo: parse template string: %w", err)
	}
	tmpl := &Template{engine: e, compiled: compiled}
	return e.execute(tmpl, e.buildContext(nil, data), out...)
}

func (e *Engine) render(r *http.Request, name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}
	tmpl, err := e.template(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, e.buildContext(r, data), out...)
}

func (e *Engine) buildContext(r *http.Request, data any) *render.Context {
	ctx := render.NewContext()
	if len(e.globals) > 0 {
		ctx.Push(e.globals)
	}
	if r != nil {
		ctx.BindRequest(r, e.processors)
	}
	if layer := dataLayer(data); layer != nil {
		ctx.Push(layer)
	}
	return ctx
}

func (e *Engine) execute(tmpl *Template, ctx *render.Context, out ...io.Writer) (string, error) {
	render.TemplateRendered.Send(render.Event{Template: tmpl, Context: ctx})

	execContext := pongo2.Context{}
	for _, layer := range ctx.Layers() {
		mapped, ok := layer.(map[string]any)
		if !ok {
			continue
		}
		execContext.Update(pongo2.Context(mapped))
	}

	var buf bytes.Buffer
	if err := tmpl.compiled.ExecuteWriter(execContext, &buf); err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", tmpl.Name(), err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) template(name string) (*Template, error) {
	path, err := e.templatePath(name)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	compiled, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
	}

	origin := path
	if e.baseDir != "" {
		origin = filepath.Clean(filepath.Join(e.baseDir, path))
	}
	tmpl := &Template{engine: e, compiled: compiled, name: name, origin: origin}
	e.templates[path] = tmpl
	return tmpl, nil
}

func (e *Engine) templatePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("pongo: template name required")
	}
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("pongo: invalid template name %q", name)
	}
	if !strings.HasSuffix(name, e.tplExt) {
		name += e.tplExt
	}
	return name, nil
}

func dataLayer(data any) map[string]any {
	switch v := data.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case pongo2.Context:
		return map[string]any(v)
	default:
		mapped, err := jsonToMap(v)
		if err != nil {
			return map[string]any{"data": v}
		}
		return mapped
	}
}

func jsonToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Template is one compiled pongo2 template. It carries the engine so
// observers can resolve engine metadata from a captured render.
type Template struct {
	engine   *Engine
	compiled *pongo2.Template
	name     string
	origin   string
}

var (
	_ render.Template      = (*Template)(nil)
	_ render.EngineCarrier = (*Template)(nil)
)

// Name returns the loader-relative name the template was requested under.
func (t *Template) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Origin returns the resolved source location, empty for string templates.
func (t *Template) Origin() string {
	if t == nil {
		return ""
	}
	return t.origin
}

// Engine exposes engine metadata to observers.
func (t *Template) Engine() render.Metadata {
	if t == nil {
		return nil
	}
	return t.engine
}
