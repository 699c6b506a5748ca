package turbodbc

import "database/sql/driver"

// Result implements driver.Result. Output-parameter retrieval from the
// teacher's Result was dropped along with stored-procedure parameter
// directions (see DESIGN.md): the handle/parameter-set layers this package
// implements bind only input parameters.
type Result struct {
	lastInsertId int64
	rowsAffected int64
}

// LastInsertId returns the identity value captured by Conn.maybeLastInsertId,
// or 0 when LastInsertIdBehavior isn't LastInsertIdAuto.
func (r *Result) LastInsertId() (int64, error) {
	return r.lastInsertId, nil
}

// RowsAffected returns the native CLI's reported row count.
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

var _ driver.Result = (*Result)(nil)
