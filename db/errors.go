package db

import (
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("not found")

// translateError maps driver level errors onto package sentinels.
func translateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func IgnoreErrNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
