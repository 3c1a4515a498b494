// Package templates implements the templates panel: it subscribes to the
// render.TemplateRendered signal for the duration of one request cycle,
// captures every template render with a redacted snapshot of its context,
// and reports the collected data through the toolbar stats sink.
//
// Context snapshots are memoized per layer identity and key set, request and
// SQL values are replaced with placeholders (their own panels report them in
// full), and value coercion runs with sqltrack recording disabled so a
// deferred query is described instead of executed.
package templates
