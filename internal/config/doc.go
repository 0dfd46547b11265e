// Package config handles configuration loading, parsing, and validation
// from the process environment and an optional .env file. It produces an
// explicit Config value that callers pass to the components that need it;
// nothing in the program reads connection settings from globals.
package config
