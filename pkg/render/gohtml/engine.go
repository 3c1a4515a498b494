// Package gohtml provides an html/template backend for the instrumented
// rendering pipeline. It exists for applications that render stdlib
// templates; templates it produces expose engine metadata through the
// Backend capability rather than Engine.
package gohtml

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-renderpanel/pkg/render"
)

// Option configures the backend before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	processors []render.Processor
	funcs      htmltemplate.FuncMap
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

// WithProcessors registers context processors run whenever a render is bound
// to an HTTP request.
func WithProcessors(processors ...render.Processor) Option {
	return func(cfg *config) {
		cfg.processors = append(cfg.processors, processors...)
	}
}

// WithFuncs registers template functions available to every template.
func WithFuncs(funcs htmltemplate.FuncMap) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.funcs == nil {
			cfg.funcs = htmltemplate.FuncMap{}
		}
		for name, fn := range funcs {
			cfg.funcs[name] = fn
		}
	}
}

// Backend renders html/template templates and reports every render through
// render.TemplateRendered.
type Backend struct {
	mu sync.RWMutex

	templates map[string]*Template

	baseDir    string
	files      fs.FS
	tplExt     string
	processors []render.Processor
	funcs      htmltemplate.FuncMap
}

var (
	_ render.Metadata     = (*Backend)(nil)
	_ render.SourceLoader = (*Backend)(nil)
)

// New constructs a Backend from the provided options. One of WithBaseDir or
// WithFS is required.
func New(options ...Option) (*Backend, error) {
	cfg := &config{extension: ".html"}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(cfg)
	}
	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("gohtml: need to provide either base dir or fs.FS")
	}
	return &Backend{
		templates:  make(map[string]*Template),
		baseDir:    cfg.baseDir,
		files:      cfg.templates,
		tplExt:     cfg.extension,
		processors: cfg.processors,
		funcs:      cfg.funcs,
	}, nil
}

// Dirs returns the directories the backend searches for template files.
func (b *Backend) Dirs() []string {
	if b == nil || b.baseDir == "" {
		return nil
	}
	return []string{b.baseDir}
}

// Source returns the raw source of the named template.
func (b *Backend) Source(name string) (string, error) {
	if b == nil {
		return "", errors.New("gohtml: backend is nil")
	}
	path, err := b.templatePath(name)
	if err != nil {
		return "", err
	}
	raw, err := b.read(path)
	if err != nil {
		return "", fmt.Errorf("gohtml: read template %q: %w", name, err)
	}
	return string(raw), nil
}

// Render renders the named template against data, fanning the output to any
// provided writers.
func (b *Backend) Render(name string, data map[string]any, out ...io.Writer) (string, error) {
	return b.render(nil, name, data, out...)
}

// RenderHTTP renders the named template bound to an HTTP request: context
// processors run first and the request itself joins the context stack.
func (b *Backend) RenderHTTP(r *http.Request, name string, data map[string]any, out ...io.Writer) (string, error) {
	return b.render(r, name, data, out...)
}

func (b *Backend) render(r *http.Request, name string, data map[string]any, out ...io.Writer) (string, error) {
	if b == nil {
		return "", errors.New("gohtml: backend is nil")
	}
	tmpl, err := b.template(name)
	if err != nil {
		return "", err
	}

	ctx := render.NewContext()
	if r != nil {
		ctx.BindRequest(r, b.processors)
	}
	if data != nil {
		ctx.Push(data)
	}
	render.TemplateRendered.Send(render.Event{Template: tmpl, Context: ctx})

	merged := map[string]any{}
	for _, layer := range ctx.Layers() {
		mapped, ok := layer.(map[string]any)
		if !ok {
			continue
		}
		for key, value := range mapped {
			merged[key] = value
		}
	}

	var buf bytes.Buffer
	if err := tmpl.compiled.Execute(&buf, merged); err != nil {
		return "", fmt.Errorf("gohtml: execute template %q: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (b *Backend) template(name string) (*Template, error) {
	path, err := b.templatePath(name)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	if tmpl, ok := b.templates[path]; ok {
		b.mu.RUnlock()
		return tmpl, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if tmpl, ok := b.templates[path]; ok {
		return tmpl, nil
	}

	raw, err := b.read(path)
	if err != nil {
		return nil, fmt.Errorf("gohtml: read template %q: %w", name, err)
	}
	compiled, err := htmltemplate.New(path).Funcs(b.funcs).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("gohtml: parse template %q: %w", name, err)
	}

	origin := path
	if b.baseDir != "" {
		origin = filepath.Clean(filepath.Join(b.baseDir, path))
	}
	tmpl := &Template{backend: b, compiled: compiled, name: name, origin: origin}
	b.templates[path] = tmpl
	return tmpl, nil
}

func (b *Backend) read(path string) ([]byte, error) {
	if b.baseDir != "" {
		return os.ReadFile(filepath.Join(b.baseDir, path))
	}
	return fs.ReadFile(b.files, path)
}

func (b *Backend) templatePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("gohtml: template name required")
	}
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("gohtml: invalid template name %q", name)
	}
	if !strings.HasSuffix(name, b.tplExt) {
		name += b.tplExt
	}
	return name, nil
}

// Template is one parsed html/template. It carries the backend so observers
// can resolve metadata from a captured render.
type Template struct {
	backend  *Backend
	compiled *htmltemplate.Template
	name     string
	origin   string
}

var (
	_ render.Template       = (*Template)(nil)
	_ render.BackendCarrier = (*Template)(nil)
)

// Name returns the loader-relative name the template was requested under.
func (t *Template) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Origin returns the resolved source location of the template.
func (t *Template) Origin() string {
	if t == nil {
		return ""
	}
	return t.origin
}

// Backend exposes backend metadata to observers.
func (t *Template) Backend() render.Metadata {
	if t == nil {
		return nil
	}
	return t.backend
}
