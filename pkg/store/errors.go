package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ignoreNoRows turns pgx.ErrNoRows into (nil row, nil error) at call
// sites that model "not found" as a nil pointer rather than an error.
func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
