package fixture

import (
	"context"
	"database/sql"

	"github.com/phrazzld/pgfault/internal/platform/logger"
)

// Initializer resets and seeds the fixture tables.
type Initializer struct{}

// NewInitializer returns an Initializer. It logs through the logger carried
// by the context passed to Initialize.
func NewInitializer() *Initializer {
	return &Initializer{}
}

// Initialize runs ResetSchema then Seed. The first failure is returned.
func (i *Initializer) Initialize(ctx context.Context, db *sql.DB) error {
	log := logger.FromContext(ctx).With("component", "fixture")
	log.Info("setting up database tables")

	if err := ResetSchema(ctx, db, log); err != nil {
		log.Error("error setting up database", "error", err)
		return err
	}
	if err := Seed(ctx, db, log); err != nil {
		log.Error("error setting up database", "error", err)
		return err
	}

	log.Info("database setup completed",
		FaultTable, len(People),
		ControlTable, len(Products))
	return nil
}
