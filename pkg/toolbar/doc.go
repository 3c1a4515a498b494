// Package toolbar carries the seams a debug panel needs from its host
// toolbar: per-request configuration, the generic stats sink panels report
// into, and the Panel surface the (external) panel registry consumes. The
// registry and the middleware deciding when the toolbar is shown live
// outside this module.
package toolbar
