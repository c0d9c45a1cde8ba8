package repository

import (
	"database/sql"
)

// requireRowsAffected maps zero-row writes onto sql.ErrNoRows so services can
// translate them into NOT_FOUND responses.
func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
