package render

// Template identifies a rendered template to signal receivers. Name is the
// loader-relative name the template was requested under; Origin is the
// resolved source location (a filesystem path for file-backed templates,
// empty for templates parsed from strings).
type Template interface {
	Name() string
	Origin() string
}

// Metadata exposes engine-level information that is stable for the lifetime
// of one request: the directories the engine searches for template files.
type Metadata interface {
	Dirs() []string
}

// EngineCarrier is implemented by templates produced by the native pongo2
// backend. BackendCarrier is the equivalent capability on templates produced
// by alternate backends such as gohtml. Consumers resolving metadata should
// check for either and fall back to empty metadata when neither is present.
type EngineCarrier interface {
	Engine() Metadata
}

// BackendCarrier mirrors EngineCarrier for non-native backends.
type BackendCarrier interface {
	Backend() Metadata
}

// SourceLoader retrieves the raw, unrendered source of a template by name.
// Both backends implement it; the template source view depends on it.
type SourceLoader interface {
	Source(name string) (string, error)
}
