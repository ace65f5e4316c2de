package repository

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("record not found")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
