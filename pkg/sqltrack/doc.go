// Package sqltrack is the seam the templates panel shares with the SQL
// panel: a process-wide recording flag guarding database access, a sentinel
// raised when a query executes while recording is off, and the
// deferred-query capability that lets display code describe a lazy query
// without executing it.
package sqltrack
