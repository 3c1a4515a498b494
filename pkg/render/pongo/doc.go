// Package pongo provides the native, pongo2-backed template engine of the
// instrumented rendering pipeline. Every render builds a layered context and
// fires render.TemplateRendered before execution, so diagnostic panels can
// observe template identity and context data as rendering happens.
package pongo
