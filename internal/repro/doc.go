// Package repro drives one end-to-end reproduction of an in-flight query
// error: connect, rebuild the fixture tables, read the control table, run
// the faulting query, read the control table again, close.
//
// Progress is printed to a caller-supplied writer in a fixed, human-readable
// form; structured diagnostics go to the logger.
package repro
