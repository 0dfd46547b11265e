// Package store defines the database access seam shared by the fixture and
// probe packages: the DBTX and TxBeginner interfaces and the sentinel
// errors callers classify failures with.
package store
