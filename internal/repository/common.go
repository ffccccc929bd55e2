package repository

import (
	"errors"

	"github.com/Masterminds/squirrel"
)

var (
	ErrObservationNotFound      = errors.New("observation not found")
	ErrPlantingSiteNotFound     = errors.New("planting site not found")
	ErrDuplicateObservationPlot = errors.New("observation plot already exists")
	ErrObservationStateChanged  = errors.New("observation state changed concurrently")
)

const pqUniqueViolation = "23505"

// builder returns a squirrel statement builder using Postgres placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
