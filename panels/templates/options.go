package templates

import (
	"net/http"

	"github.com/goliatone/go-renderpanel/pkg/render"
)

// GuardFunc vets requests to the template source view before any file is
// read. Returning an error rejects the request.
type GuardFunc func(r *http.Request) error

// PreviewFunc renders the named template with an empty context for the
// source view's preview mode.
type PreviewFunc func(name string) (string, error)

type Options struct {
	RoutePath     string
	TemplateParam string
	Source        render.SourceLoader
	Preview       PreviewFunc
	Guard         GuardFunc
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:     "/template_source",
		TemplateParam: "template",
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/template_source"
	}
	if opts.TemplateParam == "" {
		opts.TemplateParam = "template"
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithTemplateParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.TemplateParam = name
	}
}

// WithSource wires the loader the source view reads raw template text from.
func WithSource(loader render.SourceLoader) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Source = loader
	}
}

// WithPreview enables the source view's preview mode.
func WithPreview(preview PreviewFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Preview = preview
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}
