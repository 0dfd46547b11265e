// Package fixture provisions the two tables the reproduction runs against.
//
// Every run starts from scratch: both tables and the migration version table
// are dropped, the embedded migrations recreate the schema, and a fixed set
// of rows is inserted in one transaction. Any failure is returned wrapped in
// store.ErrSetupFailed; there is no partial-success mode.
package fixture
