// Package render defines the shared contracts of the instrumented rendering
// pipeline: the rendered-template identity handed to observers, the layered
// render context, and the process-global "template rendered" signal that
// panels subscribe to for the duration of one request/response cycle.
//
// Concrete backends live in the subpackages pongo (pongo2 templates) and
// gohtml (html/template). Both fire the TemplateRendered signal on every
// render, including nested includes.
package render
