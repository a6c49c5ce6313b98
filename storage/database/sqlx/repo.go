// Package sqlxrepos implements the repositories on Postgres with sqlx.
package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/plataforma-apa/apa/core"
)

// Postgres error codes
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func pgErrCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgErrCode(err) == pgUniqueViolation }
func isForeignKeyViolation(err error) bool { return pgErrCode(err) == pgForeignKeyViolation }

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// validID reports whether id can be compared to a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func quoted(cols []string) string {
	return strings.Join(strmangle.IdentQuoteSlice('"', '"', cols), ", ")
}

// insertQuery returns `INSERT INTO table (cols..) VALUES ($1..) RETURNING *`.
func insertQuery(table string, cols []string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, quoted(cols), strmangle.Placeholders(true, len(cols), 1, 1),
	)
}

// updateQuery returns `UPDATE table SET col=$1.. WHERE id = $n RETURNING *`; the id is the last arg.
func updateQuery(table string, cols []string) string {
	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING *",
		table, strmangle.SetParamNames(`"`, `"`, 1, cols), len(cols)+1,
	)
}

// whereClause accumulates AND-ed conditions using `?` bind vars.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// selectQuery assembles & rebinds a SELECT for postgres.
func selectQuery(base string, where *whereClause, orderBy string, limit int) string {
	q := base + where.String()
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return sqlx.Rebind(sqlx.DOLLAR, q)
}

// orderByClause keeps the allowed orderings, falling back to `def`.
func orderByClause(ordering []core.DBOrdering, def string, allowed ...string) string {
	ordering = core.AllowedOrderings(ordering, allowed...)
	if len(ordering) == 0 {
		return def
	}
	terms := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		terms = append(terms, ord.String())
	}
	return strings.Join(terms, ", ")
}

func likeArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
