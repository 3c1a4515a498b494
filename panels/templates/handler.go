package templates

import (
	"errors"
	htmltemplate "html/template"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
)

// HTTPError lets guards control the response status of a rejected request.
type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

var sourcePage = htmltemplate.Must(htmltemplate.New(RouteName).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Template source: {{.Name}}</title></head>
<body>
<h1>{{.Name}}</h1>
<pre><code>{{.Source}}</code></pre>
{{if .Preview}}<h2>Preview</h2><div>{{.Preview}}</div>{{end}}
</body>
</html>
`))

type sourcePageData struct {
	Name    string
	Source  string
	Preview htmltemplate.HTML
}

// previewPolicy strips anything dangerous from rendered previews; a template
// under inspection is arbitrary markup.
var previewPolicy = bluemonday.UGCPolicy()

// Handler builds the template source view with default options plus any
// overrides.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the template source view from a pre-constructed
// Options value. The view serves the full, unredacted source of one template
// file: GET with the template name in the configured query parameter, plus
// raw=1 for text/plain output and preview=1 for a sanitized render with an
// empty context.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		if opts.Source == nil {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		name := r.URL.Query().Get(opts.TemplateParam)
		if name == "" {
			http.Error(w, "missing template parameter", http.StatusBadRequest)
			return
		}

		source, err := opts.Source.Source(name)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		if r.URL.Query().Get("raw") == "1" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodHead {
				return
			}
			_, _ = w.Write([]byte(source))
			return
		}

		data := sourcePageData{Name: name, Source: source}
		if r.URL.Query().Get("preview") == "1" && opts.Preview != nil {
			if rendered, err := opts.Preview(name); err == nil {
				data.Preview = htmltemplate.HTML(previewPolicy.Sanitize(rendered))
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_ = sourcePage.Execute(w, data)
	})
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
