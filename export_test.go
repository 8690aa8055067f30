package auth

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// SetGooseUpContext swaps the migration runner and returns a restore func.
func SetGooseUpContext(fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) func() {
	prev := gooseUpContext
	gooseUpContext = fn
	return func() { gooseUpContext = prev }
}
