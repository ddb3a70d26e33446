package schema

import (
	"github.com/aachurin/sqldantic/sqltype"
)

// Tabler lets a model pick its own table name instead of the one derived
// by the naming strategy.
type Tabler interface {
	TableName() string
}

// Enum marks a named type as a closed set of values. Enum fields get an
// implicit oneof validation rule and a CHECK constraint in DDL.
type Enum interface {
	EnumValues() []string
}

// DataTyper lets a field type pick its own storage type, overriding the
// type map. Returning a sqltype.Typed also binds the codec.
type DataTyper interface {
	SQLType() sqltype.Type
}
