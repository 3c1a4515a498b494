package templates

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-renderpanel/pkg/render"
	"github.com/goliatone/go-renderpanel/pkg/sqltrack"
)

// Placeholders substituted for values that must not be displayed verbatim.
// Request and SQL data are already reported in full by their own panels.
const (
	placeholderRequest        = "<<request>>"
	placeholderSQLQueries     = "<<sql_queries>>"
	placeholderLanguages      = "<<languages>>"
	placeholderQueryTriggered = "<<triggers database query>>"
	placeholderEncodeError    = "<<unicode encode error>>"
	placeholderUnhandled      = "<<unhandled exception>>"
)

// layerKey identifies one context layer for memoization. Map storage is
// reused across layers, so the identity alone produces false hits; the
// sorted key set disambiguates.
type layerKey struct {
	id   uintptr
	keys string
}

func layerKeyFor(layer map[string]any) layerKey {
	keys := make([]string, 0, len(layer))
	for key := range layer {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return layerKey{
		id:   reflect.ValueOf(layer).Pointer(),
		keys: strings.Join(keys, "\x00"),
	}
}

// sanitizeContext flattens the context stack into redacted, pre-formatted
// text blocks, one per mapping layer, memoized for the panel's lifetime.
// It never panics: every failure mode degrades to placeholder text or to
// dropping the affected block.
func (p *Panel) sanitizeContext(ctx *render.Context) []string {
	var out []string
	for _, layer := range ctx.Layers() {
		mapped, ok := layer.(map[string]any)
		if !ok {
			continue
		}

		key := layerKeyFor(mapped)
		text, cached := p.seen[key]
		if !cached {
			pretty, err := prettyPrint(redactLayer(mapped))
			if err != nil {
				// The block cannot be formatted; drop it rather than fail
				// the whole capture.
				continue
			}
			p.seen[key] = pretty
			text = pretty
		}
		out = append(out, text)
	}
	return out
}

func redactLayer(layer map[string]any) map[string]any {
	out := make(map[string]any, len(layer))
	for key, value := range layer {
		out[key] = redactValue(key, value)
	}
	return out
}

func redactValue(key string, value any) any {
	switch {
	case isRequest(value):
		return placeholderRequest
	case key == "sql_queries" && isSlice(value):
		return placeholderSQLQueries
	case key == "LANGUAGES" && isArray(value):
		return placeholderLanguages
	}
	if deferred, ok := value.(sqltrack.DeferredQuery); ok {
		// Describing the query must not execute it; the SQL panel is where
		// the user can run it.
		return fmt.Sprintf("<<%s of %s>>", strings.ToLower(deferred.QueryKind()), deferred.Entity())
	}
	return coerceValue(value)
}

// coerceValue forces value to text with sqltrack recording disabled, so a
// lazy value whose coercion would reach the database surfaces as
// ErrQueryTriggered instead of a silent query. On success the original value
// is kept (not its string form) for pretty-printing. Recording is restored
// on every exit path.
func coerceValue(value any) (result any) {
	sqltrack.SetRecording(false)
	defer sqltrack.SetRecording(true)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if err, ok := r.(error); ok && errors.Is(err, sqltrack.ErrQueryTriggered) {
			result = placeholderQueryTriggered
			return
		}
		result = placeholderUnhandled
	}()

	text := forceText(value)
	if !utf8.ValidString(text) {
		return placeholderEncodeError
	}
	return value
}

// forceText coerces value to a string, calling String/Error directly so that
// a panicking implementation reaches our recover instead of being swallowed
// by the fmt package.
func forceText(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func prettyPrint(layer map[string]any) (string, error) {
	raw, err := yaml.Marshal(layer)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

func isRequest(value any) bool {
	_, ok := value.(*http.Request)
	return ok
}

func isSlice(value any) bool {
	return value != nil && reflect.TypeOf(value).Kind() == reflect.Slice
}

func isArray(value any) bool {
	return value != nil && reflect.TypeOf(value).Kind() == reflect.Array
}
