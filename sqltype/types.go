package sqltype

import "fmt"

// Boolean maps Go bool.
type Boolean struct{}

func (Boolean) SQL(dialect Dialect) string {
	if dialect == SQLite {
		return "numeric"
	}
	return "boolean"
}

// SmallInt is a 16-bit integer column.
type SmallInt struct {
	Unsigned bool
}

func (t SmallInt) SQL(dialect Dialect) string {
	return renderInt(dialect, "smallint", t.Unsigned)
}

// Integer is a 32-bit integer column.
type Integer struct {
	Unsigned bool
}

func (t Integer) SQL(dialect Dialect) string {
	return renderInt(dialect, "integer", t.Unsigned)
}

// BigInt is a 64-bit integer column.
type BigInt struct {
	Unsigned bool
}

func (t BigInt) SQL(dialect Dialect) string {
	return renderInt(dialect, "bigint", t.Unsigned)
}

func renderInt(dialect Dialect, sqlType string, unsigned bool) string {
	// postgres has no unsigned integers, sqlite does not enforce them
	if unsigned && dialect == MySQL {
		return sqlType + " unsigned"
	}
	return sqlType
}

// Float is a single-precision float column.
type Float struct{}

func (Float) SQL(dialect Dialect) string {
	switch dialect {
	case Postgres:
		return "real"
	case MySQL:
		return "float"
	default:
		return "real"
	}
}

// Double is a double-precision float column.
type Double struct{}

func (Double) SQL(dialect Dialect) string {
	switch dialect {
	case Postgres:
		return "double precision"
	case MySQL:
		return "double"
	default:
		return "real"
	}
}

// Numeric is an exact decimal column. Zero Precision renders a bare numeric.
type Numeric struct {
	Precision int
	Scale     int
}

func (t Numeric) SQL(dialect Dialect) string {
	if t.Precision > 0 {
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
	}
	return "numeric"
}

// String is a varchar column; zero Size falls back to an unbounded text type.
type String struct {
	Size int
}

func (t String) SQL(dialect Dialect) string {
	if t.Size > 0 && t.Size < 65532 {
		return fmt.Sprintf("varchar(%d)", t.Size)
	}
	return Text{}.SQL(dialect)
}

// Text is an unbounded string column.
type Text struct{}

func (Text) SQL(dialect Dialect) string {
	if dialect == MySQL {
		return "longtext"
	}
	return "text"
}

// LargeBinary is a byte-payload column; Size bounds it on dialects that can.
type LargeBinary struct {
	Size int
}

func (t LargeBinary) SQL(dialect Dialect) string {
	switch dialect {
	case Postgres:
		return "bytea"
	case MySQL:
		if t.Size > 0 && t.Size < 65532 {
			return fmt.Sprintf("varbinary(%d)", t.Size)
		}
		return "longblob"
	default:
		return "blob"
	}
}

// DateTime is a point-in-time column.
type DateTime struct{}

func (DateTime) SQL(dialect Dialect) string {
	if dialect == Postgres {
		return "timestamp with time zone"
	}
	return "datetime"
}

// Date is a calendar-date column.
type Date struct{}

func (Date) SQL(Dialect) string { return "date" }

// Time is a time-of-day column.
type Time struct{}

func (Time) SQL(Dialect) string { return "time" }

// Interval is a duration column, native only on postgres.
type Interval struct{}

func (Interval) SQL(dialect Dialect) string {
	if dialect == Postgres {
		return "interval"
	}
	return "bigint"
}

// UUID is a universally-unique-identifier column.
type UUID struct{}

func (UUID) SQL(dialect Dialect) string {
	if dialect == Postgres {
		return "uuid"
	}
	return "char(36)"
}

// Inet is an IP-address column, native only on postgres. 45 characters hold
// an IPv4-mapped IPv6 address in text form.
type Inet struct{}

func (Inet) SQL(dialect Dialect) string {
	if dialect == Postgres {
		return "inet"
	}
	return "varchar(45)"
}

// Cidr is an IP-network column, native only on postgres.
type Cidr struct{}

func (Cidr) SQL(dialect Dialect) string {
	if dialect == Postgres {
		return "cidr"
	}
	return "varchar(49)"
}

// JSON is a structured-document column.
type JSON struct{}

func (JSON) SQL(dialect Dialect) string {
	switch dialect {
	case Postgres, MySQL:
		return "json"
	default:
		return "text"
	}
}

// JSONB is the postgres binary JSON column; other dialects fall back to JSON.
type JSONB struct{}

func (JSONB) SQL(dialect Dialect) string {
	if dialect == Postgres {
		return "jsonb"
	}
	return JSON{}.SQL(dialect)
}

// Raw renders the same type text on every dialect. It backs explicit
// `type:` tag overrides.
type Raw struct {
	Def string
}

func (t Raw) SQL(Dialect) string { return t.Def }
