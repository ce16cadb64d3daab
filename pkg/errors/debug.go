package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only view of an error: its typed code, every link of the
// wrap chain and, when a postgres driver error sits in the chain, its diagnostics.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// pgExtractor fills the PG* fields when it recognises a driver error in err.
type pgExtractor func(err error, d *ErrorDump) bool

// pgx backs gorm's postgres driver; pq shows up through goose and raw database/sql.
var pgExtractors = []pgExtractor{fromPgx, fromPq}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error(), Chain: chainOf(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for _, extract := range pgExtractors {
		if extract(err, &d) {
			break
		}
	}
	return d
}

func chainOf(err error) []string {
	var chain []string
	for cur := err; cur != nil; cur = stdErrors.Unwrap(cur) {
		chain = append(chain, fmt.Sprintf("%T: %v", cur, cur))
	}
	return chain
}

func fromPgx(err error, d *ErrorDump) bool {
	var pgErr *pgconn.PgError
	if !stdErrors.As(err, &pgErr) {
		return false
	}
	d.PGCode, d.PGMessage, d.PGDetail = pgErr.Code, pgErr.Message, pgErr.Detail
	d.PGTable, d.PGColumn, d.PGConstraint = pgErr.TableName, pgErr.ColumnName, pgErr.ConstraintName
	return true
}

func fromPq(err error, d *ErrorDump) bool {
	var pqErr *pq.Error
	if !stdErrors.As(err, &pqErr) {
		return false
	}
	d.PGCode, d.PGMessage, d.PGDetail = string(pqErr.Code), pqErr.Message, pqErr.Detail
	d.PGTable, d.PGColumn, d.PGConstraint = pqErr.Table, pqErr.Column, pqErr.Constraint
	return true
}
