// Package probe runs the queries of a reproduction: reads of the control
// table, the query that fails partway through, and a per-row replay of its
// predicate. The expected failure is returned as a FaultResult value, never
// as a Go error, so callers branch on it explicitly.
package probe
