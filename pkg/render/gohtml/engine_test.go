package gohtml

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-renderpanel/pkg/render"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func captureEvents(t *testing.T) *[]render.Event {
	t.Helper()
	var events []render.Event
	token := render.TemplateRendered.Connect(func(ev render.Event) {
		events = append(events, ev)
	})
	t.Cleanup(func() { render.TemplateRendered.Disconnect(token) })
	return &events
}

func TestNew_RequiresTemplateSource(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error when neither base dir nor fs.FS is given")
	}
}

func TestRender_FiresSignalWithBackendMetadata(t *testing.T) {
	files := fstest.MapFS{
		"greet.html": &fstest.MapFile{Data: []byte("Hello {{.name}}!")},
	}
	backend, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	events := captureEvents(t)

	out, err := backend.Render("greet", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello Ada!" {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(*events) != 1 {
		t.Fatalf("expected 1 render event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Template.Name() != "greet" {
		t.Fatalf("unexpected template name: %q", ev.Template.Name())
	}

	if _, ok := ev.Template.(render.EngineCarrier); ok {
		t.Fatalf("gohtml templates must not expose the native engine capability")
	}
	carrier, ok := ev.Template.(render.BackendCarrier)
	if !ok {
		t.Fatalf("expected template to carry backend metadata")
	}
	if dirs := carrier.Backend().Dirs(); dirs != nil {
		t.Fatalf("expected no dirs for fs-backed templates, got %v", dirs)
	}
}

func TestRender_BaseDirOriginAndDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), "ok")

	backend, err := New(WithBaseDir(dir))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	events := captureEvents(t)

	if _, err := backend.Render("page", nil); err != nil {
		t.Fatalf("render: %v", err)
	}

	ev := (*events)[0]
	wantOrigin := filepath.Clean(filepath.Join(dir, "page.html"))
	if ev.Template.Origin() != wantOrigin {
		t.Fatalf("unexpected origin: %q, want %q", ev.Template.Origin(), wantOrigin)
	}

	carrier := ev.Template.(render.BackendCarrier)
	if diff := cmp.Diff([]string{dir}, carrier.Backend().Dirs()); diff != "" {
		t.Fatalf("unexpected dirs (-want +got):\n%s", diff)
	}
}

func TestSource_RejectsTraversal(t *testing.T) {
	backend, err := New(WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := backend.Source("../secret"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}
