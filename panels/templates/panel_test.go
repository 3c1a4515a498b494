package templates

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-renderpanel/pkg/render"
	"github.com/goliatone/go-renderpanel/pkg/toolbar"
)

type fakeMeta struct {
	dirs []string
}

func (m fakeMeta) Dirs() []string { return m.dirs }

type fakeTemplate struct {
	name   string
	origin string
	meta   render.Metadata
}

func (t fakeTemplate) Name() string   { return t.name }
func (t fakeTemplate) Origin() string { return t.origin }

func (t fakeTemplate) Engine() render.Metadata { return t.meta }

type fakeBackendTemplate struct {
	fakeTemplate
}

func (t fakeBackendTemplate) Engine() render.Metadata  { return nil }
func (t fakeBackendTemplate) Backend() render.Metadata { return t.meta }

func sendRender(tmpl render.Template, layers ...any) {
	render.TemplateRendered.Send(render.Event{
		Template: tmpl,
		Context:  render.NewContext(layers...),
	})
}

func reportFor(t *testing.T, tb *toolbar.Toolbar) Stats {
	t.Helper()
	stats, ok := tb.Stats(PanelName).(Stats)
	if !ok {
		t.Fatalf("no stats recorded under %q", PanelName)
	}
	return stats
}

func TestPanel_EmptyCycle(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	panel.DisableInstrumentation()
	panel.GenerateStats(nil)

	stats := reportFor(t, tb)
	if len(stats.Templates) != 0 {
		t.Fatalf("expected no templates, got %d", len(stats.Templates))
	}
	if len(stats.TemplateDirs) != 0 {
		t.Fatalf("expected empty dirs, got %v", stats.TemplateDirs)
	}
	if stats.ContextProcessors != nil {
		t.Fatalf("expected no processors, got %v", stats.ContextProcessors)
	}
}

func TestPanel_CapturesRendersInOrder(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	sendRender(fakeTemplate{name: "a.html", origin: "/srv/app/templates/a.html"}, map[string]any{"x": 1})
	sendRender(fakeTemplate{name: "b.html", origin: "/srv/app/templates/b.html"}, map[string]any{"x": 2})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)

	if len(stats.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(stats.Templates))
	}
	if stats.Templates[0].Name != "a.html" || stats.Templates[1].Name != "b.html" {
		t.Fatalf("render order not preserved: %+v", stats.Templates)
	}
	if stats.Templates[0].OriginName != "/srv/app/templates/a.html" {
		t.Fatalf("unexpected origin name: %q", stats.Templates[0].OriginName)
	}
	if stats.Templates[0].Context == "" || stats.Templates[1].Context == "" {
		t.Fatalf("expected context text for both templates: %+v", stats.Templates)
	}
	if stats.Templates[0].Context == stats.Templates[1].Context {
		t.Fatalf("distinct contexts must produce distinct text: %q", stats.Templates[0].Context)
	}
}

func TestPanel_SkipsToolbarInternalTemplates(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	sendRender(fakeTemplate{name: "debug_toolbar/panel.html"}, map[string]any{"x": 1})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)
	if len(stats.Templates) != 0 {
		t.Fatalf("internal template captured: %+v", stats.Templates)
	}
	if got := panel.Title(); got != "Templates (0 rendered)" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestPanel_DisableStopsCapture(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	sendRender(fakeTemplate{name: "a.html"}, map[string]any{"x": 1})
	panel.DisableInstrumentation()
	panel.DisableInstrumentation() // idempotent
	sendRender(fakeTemplate{name: "b.html"}, map[string]any{"x": 2})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)
	if len(stats.Templates) != 1 || stats.Templates[0].Name != "a.html" {
		t.Fatalf("capture after disable: %+v", stats.Templates)
	}
}

func TestPanel_ContextOmittedWhenDisplayDisabled(t *testing.T) {
	tb := toolbar.New(toolbar.WithShowTemplateContext(false))
	panel := New(tb)
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	sendRender(fakeTemplate{name: "a.html"}, map[string]any{"x": 1})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)
	if stats.Templates[0].Context != "" {
		t.Fatalf("expected context to be omitted, got %q", stats.Templates[0].Context)
	}
}

func TestPanel_NoOriginFallback(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	sendRender(fakeTemplate{name: "inline"}, map[string]any{"x": 1})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)
	if stats.Templates[0].OriginName != NoOriginLabel {
		t.Fatalf("expected %q, got %q", NoOriginLabel, stats.Templates[0].OriginName)
	}
}

func TestPanel_MetadataFromFirstRecordOnly(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	first := render.NewContext(map[string]any{"x": 1})
	first.BindRequest(req, []render.Processor{
		{Name: "site", Fn: func(*http.Request) map[string]any { return nil }},
	})
	render.TemplateRendered.Send(render.Event{
		Template: fakeTemplate{name: "a.html", meta: fakeMeta{dirs: []string{"/srv/app/templates/./pages"}}},
		Context:  first,
	})

	second := render.NewContext(map[string]any{"x": 2})
	second.BindRequest(req, []render.Processor{
		{Name: "other", Fn: func(*http.Request) map[string]any { return nil }},
	})
	render.TemplateRendered.Send(render.Event{
		Template: fakeTemplate{name: "b.html", meta: fakeMeta{dirs: []string{"/elsewhere"}}},
		Context:  second,
	})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)

	if diff := cmp.Diff([]string{"/srv/app/templates/pages"}, stats.TemplateDirs); diff != "" {
		t.Fatalf("unexpected dirs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"site"}, stats.ContextProcessors); diff != "" {
		t.Fatalf("unexpected processors (-want +got):\n%s", diff)
	}
}

func TestPanel_BackendMetadataResolution(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	tmpl := fakeBackendTemplate{fakeTemplate{name: "a.html", meta: fakeMeta{dirs: []string{"/srv/alt"}}}}
	sendRender(tmpl, map[string]any{"x": 1})

	panel.GenerateStats(nil)
	stats := reportFor(t, tb)
	if diff := cmp.Diff([]string{"/srv/alt"}, stats.TemplateDirs); diff != "" {
		t.Fatalf("unexpected dirs (-want +got):\n%s", diff)
	}
}

func TestPanel_NavMetadata(t *testing.T) {
	tb := toolbar.New()
	panel := New(tb)

	if got := panel.NavTitle(); got != "Templates" {
		t.Fatalf("unexpected nav title: %q", got)
	}
	if got := panel.NavSubtitle(); got != "" {
		t.Fatalf("expected empty subtitle before any render, got %q", got)
	}

	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()
	sendRender(fakeTemplate{name: "a.html"}, map[string]any{"x": 1})
	sendRender(fakeTemplate{name: "b.html"}, map[string]any{"x": 2})

	if got := panel.NavSubtitle(); got != "a.html" {
		t.Fatalf("unexpected subtitle: %q", got)
	}
	if got := panel.Title(); got != "Templates (2 rendered)" {
		t.Fatalf("unexpected title: %q", got)
	}
	if !strings.HasPrefix(panel.Title(), panel.NavTitle()) {
		t.Fatalf("title should extend the nav title")
	}
}
