// Package sqltype describes the storage side of a field declaration: the SQL
// type a column is created with, per dialect, independent of any driver.
package sqltype

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aachurin/sqldantic/logger"
)

// Dialect names the SQL flavor used when rendering types, identifiers and
// placeholders. The zero value renders portable SQL.
type Dialect string

const (
	Generic  Dialect = ""
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Quote quotes an identifier for the dialect.
func (d Dialect) Quote(name string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// Placeholder returns the bind placeholder for the idx-th argument, 1-based.
func (d Dialect) Placeholder(idx int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(idx)
	}
	return "?"
}

var numericPlaceholder = regexp.MustCompile(`\$(\d+)`)

// Explain interpolates vars into sql's placeholders for trace output; the
// result is not safe to execute.
func (d Dialect) Explain(sql string, vars ...interface{}) string {
	if d == Postgres {
		return logger.ExplainSQL(sql, numericPlaceholder, `'`, vars...)
	}
	return logger.ExplainSQL(sql, nil, `'`, vars...)
}

// Type is a storage type. Implementations render the column type text for a
// given dialect.
type Type interface {
	SQL(dialect Dialect) string
}
