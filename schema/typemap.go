package schema

import (
	"net/netip"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aachurin/sqldantic/sqltype"
)

// DefaultTypeMap returns the built-in Go-type to storage-type defaults.
// Entries from Options.TypeMap are merged over it.
//
// uuid.UUID and decimal.Decimal bind natively through their own
// Scanner/Valuer implementations; netip and time.Duration need a codec.
func DefaultTypeMap() map[reflect.Type]sqltype.Type {
	return map[reflect.Type]sqltype.Type{
		TimeReflectType:                   sqltype.DateTime{},
		reflect.TypeOf(time.Duration(0)):  sqltype.Typed{Storage: sqltype.BigInt{}, Codec: "duration"},
		reflect.TypeOf(uuid.UUID{}):       sqltype.UUID{},
		reflect.TypeOf(decimal.Decimal{}): sqltype.Numeric{},
		reflect.TypeOf(netip.Addr{}):      sqltype.Typed{Storage: sqltype.Inet{}, Codec: "inet"},
		reflect.TypeOf(netip.Prefix{}):    sqltype.Typed{Storage: sqltype.Cidr{}, Codec: "cidr"},
	}
}

// kindStorageType maps an already classified scalar field to storage by its
// primitive data type and size.
func kindStorageType(field *Field) sqltype.Type {
	switch field.DataType {
	case Bool:
		return sqltype.Boolean{}
	case Int, Uint:
		unsigned := field.DataType == Uint
		switch {
		case field.Size <= 16:
			return sqltype.SmallInt{Unsigned: unsigned}
		case field.Size <= 32:
			return sqltype.Integer{Unsigned: unsigned}
		default:
			return sqltype.BigInt{Unsigned: unsigned}
		}
	case Float:
		if field.Size <= 32 {
			return sqltype.Float{}
		}
		return sqltype.Double{}
	case String:
		return sqltype.String{Size: field.Size}
	case Bytes:
		return sqltype.LargeBinary{Size: field.Size}
	case Time:
		return sqltype.DateTime{}
	}
	return nil
}
