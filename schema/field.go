package schema

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/now"

	"github.com/aachurin/sqldantic/sqltype"
	"github.com/aachurin/sqldantic/utils"
)

// DataType is the normalized Go-side family of a field's value.
type DataType string

// TimeType tells how an automatic timestamp is stored.
type TimeType int64

const (
	UnixTime        TimeType = 1
	UnixSecond      TimeType = 2
	UnixMillisecond TimeType = 3
	UnixNanosecond  TimeType = 4
)

const (
	Bool   DataType = "bool"
	Int    DataType = "int"
	Uint   DataType = "uint"
	Float  DataType = "float"
	String DataType = "string"
	Time   DataType = "time"
	Bytes  DataType = "bytes"
)

// FieldKind classifies how a field binds to the database.
type FieldKind string

const (
	// KindScalar maps 1:1 onto a driver value.
	KindScalar FieldKind = "scalar"
	// KindEnum is a scalar constrained to a closed value set.
	KindEnum FieldKind = "enum"
	// KindComposite is a struct/map/interface stored through a codec.
	KindComposite FieldKind = "composite"
	// KindCollection is a slice/array stored through a codec.
	KindCollection FieldKind = "collection"
	// KindRelation does not own a column; it is wired to another model.
	KindRelation FieldKind = "relation"
)

var TimeReflectType = reflect.TypeOf(time.Time{})

// knownTagSettings is the closed set of sqld settings; anything else
// fails parsing instead of being silently dropped.
var knownTagSettings = map[string]bool{
	"-":              true,
	"COLUMN":         true,
	"TYPE":           true,
	"SERIALIZER":     true,
	"PRIMARYKEY":     true,
	"AUTOINCREMENT":  true,
	"INDEX":          true,
	"UNIQUEINDEX":    true,
	"UNIQUE":         true,
	"NOTNULL":        true,
	"NULLABLE":       true,
	"DEFAULT":        true,
	"FOREIGNKEY":     true,
	"COMMENT":        true,
	"PRECISION":      true,
	"SCALE":          true,
	"SIZE":           true,
	"CHECK":          true,
	"EMBEDDED":       true,
	"EMBEDDEDPREFIX": true,
	"AUTOCREATETIME": true,
	"AUTOUPDATETIME": true,
	"REL":            true,
	"BACKPOPULATES":  true,
	"MANY2MANY":      true,
	"REFERENCES":     true,
	"ONDELETE":       true,
	"ONUPDATE":       true,
	"REQUIRED":       true,
	"GT":             true,
	"GTE":            true,
	"LT":             true,
	"LTE":            true,
	"MIN":            true,
	"MAX":            true,
	"LEN":            true,
	"ONEOF":          true,
	"VALIDATE":       true,
}

// columnTagSettings may not appear on relationship fields.
var columnTagSettings = map[string]bool{
	"COLUMN":         true,
	"TYPE":           true,
	"SERIALIZER":     true,
	"PRIMARYKEY":     true,
	"AUTOINCREMENT":  true,
	"INDEX":          true,
	"UNIQUEINDEX":    true,
	"UNIQUE":         true,
	"NOTNULL":        true,
	"NULLABLE":       true,
	"DEFAULT":        true,
	"COMMENT":        true,
	"PRECISION":      true,
	"SCALE":          true,
	"SIZE":           true,
	"CHECK":          true,
	"EMBEDDED":       true,
	"EMBEDDEDPREFIX": true,
	"AUTOCREATETIME": true,
	"AUTOUPDATETIME": true,
}

// relationTagSettings mark a field as a relationship.
var relationTagSettings = map[string]bool{
	"REL":           true,
	"BACKPOPULATES": true,
	"MANY2MANY":     true,
}

// Field is the parsed descriptor of one struct field.
type Field struct {
	Name                  string
	DBName                string
	BindNames             []string
	Kind                  FieldKind
	DataType              DataType
	StorageType           sqltype.Type
	Codec                 string
	EnumValues            []string
	Rule                  string
	PrimaryKey            bool
	AutoIncrement         bool
	Creatable             bool
	Updatable             bool
	Readable              bool
	AutoCreateTime        TimeType
	AutoUpdateTime        TimeType
	HasDefaultValue       bool
	DefaultValue          string
	DefaultValueInterface interface{}
	DefaultFunc           func() interface{}
	NotNull               bool
	Nullable              bool
	Unique                bool
	Comment               string
	Size                  int
	Precision             int
	Scale                 int
	ForeignTable          string
	ForeignColumn         string
	FieldType             reflect.Type
	IndirectFieldType     reflect.Type
	StructField           reflect.StructField
	Tag                   reflect.StructTag
	TagSettings           map[string]string
	Schema                *Schema
	EmbeddedSchema        *Schema
	OwnerSchema           *Schema
	ReflectValueOf        func(context.Context, reflect.Value) reflect.Value
	ValueOf               func(context.Context, reflect.Value) (value interface{}, zero bool)
	Set                   func(ctx context.Context, value reflect.Value, v interface{}) error
}

// HasColumn reports whether the field owns a database column.
func (field *Field) HasColumn() bool {
	return field.Kind != KindRelation && field.DBName != ""
}

// ParseField builds a Field descriptor out of a struct field declaration.
func (schema *Schema) ParseField(fieldStruct reflect.StructField) *Field {
	var (
		err        error
		tagSetting = ParseTagSetting(fieldStruct.Tag.Get("sqld"), ";")
	)

	field := &Field{
		Name:              fieldStruct.Name,
		BindNames:         []string{fieldStruct.Name},
		FieldType:         fieldStruct.Type,
		IndirectFieldType: fieldStruct.Type,
		StructField:       fieldStruct,
		Tag:               fieldStruct.Tag,
		TagSettings:       tagSetting,
		Schema:            schema,
		Creatable:         true,
		Updatable:         true,
		Readable:          true,
		Nullable:          fieldStruct.Type.Kind() == reflect.Ptr,
	}

	for field.IndirectFieldType.Kind() == reflect.Ptr {
		field.IndirectFieldType = field.IndirectFieldType.Elem()
	}

	for key := range field.TagSettings {
		if !knownTagSettings[key] {
			schema.err = fmt.Errorf("%w: %s.%s has setting %q", ErrUnknownTagKey, schema.Name, field.Name, strings.ToLower(key))
			return field
		}
	}

	if _, ok := field.TagSettings["-"]; ok {
		field.Creatable = false
		field.Updatable = false
		field.Readable = false
		return field
	}

	// Relationship fields own no column; they are resolved after every
	// model's columns are known.
	relTagged := false
	for key := range relationTagSettings {
		if _, ok := field.TagSettings[key]; ok {
			relTagged = true
			break
		}
	}
	if relTagged {
		for key := range field.TagSettings {
			if columnTagSettings[key] {
				schema.err = fmt.Errorf("%w: %s.%s combines %q with a relationship setting",
					ErrMixedMarkers, schema.Name, field.Name, strings.ToLower(key))
				return field
			}
		}
		field.Kind = KindRelation
		field.buildValidationRule()
		return field
	}
	if _, ok := field.TagSettings["REFERENCES"]; ok {
		schema.err = fmt.Errorf("%w: %s.%s uses references without rel or many2many",
			ErrMixedMarkers, schema.Name, field.Name)
		return field
	}

	// A valuer binds through the type of its value, or through its first
	// struct field, e.g. sql.NullInt64 through int64. A zero value that
	// binds as NULL makes the column nullable.
	fieldValue := reflect.New(field.IndirectFieldType)
	valuer, isValuer := fieldValue.Interface().(driver.Valuer)
	if isValuer {
		if _, ok := fieldValue.Interface().(DataTyper); !ok {
			if v, err := valuer.Value(); reflect.ValueOf(v).IsValid() && err == nil {
				fieldValue = reflect.ValueOf(v)
			} else if v == nil && err == nil {
				field.Nullable = true
			}

			var realFieldValue func(reflect.Value)
			realFieldValue = func(v reflect.Value) {
				rv := reflect.Indirect(v)
				if rv.Kind() == reflect.Struct && !rv.Type().ConvertibleTo(TimeReflectType) && rv.Type().NumField() > 0 {
					newFieldType := rv.Type().Field(0).Type
					for newFieldType.Kind() == reflect.Ptr {
						newFieldType = newFieldType.Elem()
					}
					fieldValue = reflect.New(newFieldType)
					if rv.Type() != reflect.Indirect(fieldValue).Type() {
						realFieldValue(fieldValue)
					}
				}
			}
			realFieldValue(fieldValue)
		}
	}

	if dbName, ok := field.TagSettings["COLUMN"]; ok {
		field.DBName = dbName
	}

	if val, ok := field.TagSettings["PRIMARYKEY"]; ok && utils.CheckTruth(val) {
		field.PrimaryKey = true
	}

	if val, ok := field.TagSettings["AUTOINCREMENT"]; ok && utils.CheckTruth(val) {
		field.AutoIncrement = true
		field.HasDefaultValue = true
	}

	if v, ok := field.TagSettings["DEFAULT"]; ok {
		if field.AutoIncrement {
			schema.err = fmt.Errorf("%w: %s.%s declares both default and autoIncrement",
				ErrConflictingMarkers, schema.Name, field.Name)
			return field
		}
		field.HasDefaultValue = true
		field.DefaultValue = v
	}

	if num, ok := field.TagSettings["SIZE"]; ok {
		if field.Size, err = strconv.Atoi(num); err != nil {
			field.Size = -1
		}
	}

	if p, ok := field.TagSettings["PRECISION"]; ok {
		field.Precision, _ = strconv.Atoi(p)
	}

	if s, ok := field.TagSettings["SCALE"]; ok {
		field.Scale, _ = strconv.Atoi(s)
	}

	if val, ok := field.TagSettings["NOTNULL"]; ok && utils.CheckTruth(val) {
		field.NotNull = true
	}

	if val, ok := field.TagSettings["NULLABLE"]; ok && utils.CheckTruth(val) {
		if field.NotNull {
			schema.err = fmt.Errorf("%w: %s.%s declares both notNull and nullable",
				ErrConflictingMarkers, schema.Name, field.Name)
			return field
		}
		if field.PrimaryKey {
			schema.err = fmt.Errorf("%w: %s.%s declares a nullable primary key",
				ErrConflictingMarkers, schema.Name, field.Name)
			return field
		}
		field.Nullable = true
	}

	if val, ok := field.TagSettings["UNIQUE"]; ok && utils.CheckTruth(val) {
		field.Unique = true
	}

	if val, ok := field.TagSettings["COMMENT"]; ok {
		field.Comment = val
	}

	if v, ok := field.TagSettings["FOREIGNKEY"]; ok {
		dot := strings.LastIndex(v, ".")
		if dot <= 0 || dot == len(v)-1 {
			schema.err = fmt.Errorf("%w: %s.%s wants %q, expected table.column",
				ErrInvalidForeignKey, schema.Name, field.Name, v)
			return field
		}
		field.ForeignTable, field.ForeignColumn = v[:dot], v[dot+1:]
	} else {
		for _, key := range []string{"ONDELETE", "ONUPDATE"} {
			if _, ok := field.TagSettings[key]; ok {
				schema.err = fmt.Errorf("%w: %s.%s uses %s without foreignKey",
					ErrConflictingMarkers, schema.Name, field.Name, strings.ToLower(key))
				return field
			}
		}
	}

	// Normalize the Go-side family and parse the default literal where a
	// Go value can be derived from it.
	switch reflect.Indirect(fieldValue).Kind() {
	case reflect.Bool:
		field.DataType = Bool
		if field.HasDefaultValue && field.DefaultValue != "" {
			if field.DefaultValueInterface, err = strconv.ParseBool(field.DefaultValue); err != nil {
				schema.err = fmt.Errorf("%w: failed to parse %q as bool for %s.%s",
					ErrInvalidDefault, field.DefaultValue, schema.Name, field.Name)
				return field
			}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.DataType = Int
		if field.HasDefaultValue && field.DefaultValue != "" {
			if field.IndirectFieldType == reflect.TypeOf(time.Duration(0)) {
				var d time.Duration
				if d, err = time.ParseDuration(field.DefaultValue); err != nil {
					schema.err = fmt.Errorf("%w: failed to parse %q as duration for %s.%s",
						ErrInvalidDefault, field.DefaultValue, schema.Name, field.Name)
					return field
				}
				field.DefaultValueInterface = d
			} else if field.DefaultValueInterface, err = strconv.ParseInt(field.DefaultValue, 0, 64); err != nil {
				schema.err = fmt.Errorf("%w: failed to parse %q as int for %s.%s",
					ErrInvalidDefault, field.DefaultValue, schema.Name, field.Name)
				return field
			}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.DataType = Uint
		if field.HasDefaultValue && field.DefaultValue != "" {
			if field.DefaultValueInterface, err = strconv.ParseUint(field.DefaultValue, 0, 64); err != nil {
				schema.err = fmt.Errorf("%w: failed to parse %q as uint for %s.%s",
					ErrInvalidDefault, field.DefaultValue, schema.Name, field.Name)
				return field
			}
		}
	case reflect.Float32, reflect.Float64:
		field.DataType = Float
		if field.HasDefaultValue && field.DefaultValue != "" {
			if field.DefaultValueInterface, err = strconv.ParseFloat(field.DefaultValue, 64); err != nil {
				schema.err = fmt.Errorf("%w: failed to parse %q as float for %s.%s",
					ErrInvalidDefault, field.DefaultValue, schema.Name, field.Name)
				return field
			}
		}
	case reflect.String:
		field.DataType = String
		if field.HasDefaultValue && field.DefaultValue != "" {
			field.DefaultValue = strings.Trim(field.DefaultValue, "'")
			field.DefaultValue = strings.Trim(field.DefaultValue, `"`)
			field.DefaultValueInterface = field.DefaultValue
		}
	case reflect.Struct:
		if _, ok := fieldValue.Interface().(*time.Time); ok {
			field.DataType = Time
		} else if fieldValue.Type().ConvertibleTo(TimeReflectType) {
			field.DataType = Time
		} else if fieldValue.Type().ConvertibleTo(reflect.TypeOf(&time.Time{})) {
			field.DataType = Time
		}
	case reflect.Array, reflect.Slice:
		if reflect.Indirect(fieldValue).Type().Elem() == reflect.TypeOf(uint8(0)) {
			field.DataType = Bytes
		}
	}

	if v, ok := field.TagSettings["AUTOCREATETIME"]; (ok && utils.CheckTruth(v)) ||
		(!ok && field.Name == "CreatedAt" && (field.DataType == Time || field.DataType == Int || field.DataType == Uint)) {
		if field.DataType == Time {
			field.AutoCreateTime = UnixTime
		} else if strings.EqualFold(v, "nano") {
			field.AutoCreateTime = UnixNanosecond
		} else if strings.EqualFold(v, "milli") {
			field.AutoCreateTime = UnixMillisecond
		} else {
			field.AutoCreateTime = UnixSecond
		}
	}

	if v, ok := field.TagSettings["AUTOUPDATETIME"]; (ok && utils.CheckTruth(v)) ||
		(!ok && field.Name == "UpdatedAt" && (field.DataType == Time || field.DataType == Int || field.DataType == Uint)) {
		if field.DataType == Time {
			field.AutoUpdateTime = UnixTime
		} else if strings.EqualFold(v, "nano") {
			field.AutoUpdateTime = UnixNanosecond
		} else if strings.EqualFold(v, "milli") {
			field.AutoUpdateTime = UnixMillisecond
		} else {
			field.AutoUpdateTime = UnixSecond
		}
	}

	if field.Size == 0 {
		switch reflect.Indirect(fieldValue).Kind() {
		case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Float64:
			field.Size = 64
		case reflect.Int8, reflect.Uint8:
			field.Size = 8
		case reflect.Int16, reflect.Uint16:
			field.Size = 16
		case reflect.Int32, reflect.Uint32, reflect.Float32:
			field.Size = 32
		}
	}

	if _, ok := field.TagSettings["EMBEDDED"]; ok || (fieldStruct.Anonymous && !isValuer && fieldStruct.Tag.Get("sqld") != "-") {
		kind := reflect.Indirect(fieldValue).Kind()
		switch kind {
		case reflect.Struct:
			var err error
			field.Creatable = false
			field.Updatable = false
			field.Readable = false

			cacheStore := &sync.Map{}
			cacheStore.Store(embeddedCacheKey, true)
			embeddedOpts := schema.opts
			embeddedOpts.Namer = embeddedNamer{Table: schema.Table, Namer: schema.opts.Namer}
			if field.EmbeddedSchema, err = getOrParse(fieldValue.Interface(), cacheStore, embeddedOpts); err != nil {
				schema.err = err
				return field
			}

			for _, ef := range field.EmbeddedSchema.Fields {
				ef.Schema = schema
				ef.OwnerSchema = field.EmbeddedSchema
				ef.BindNames = append([]string{fieldStruct.Name}, ef.BindNames...)
				// index is negative means the field is a pointer embedded struct
				if field.FieldType.Kind() == reflect.Struct {
					ef.StructField.Index = append([]int{fieldStruct.Index[0]}, ef.StructField.Index...)
				} else {
					ef.StructField.Index = append([]int{-fieldStruct.Index[0] - 1}, ef.StructField.Index...)
				}

				if prefix, ok := field.TagSettings["EMBEDDEDPREFIX"]; ok && ef.DBName != "" {
					ef.DBName = prefix + ef.DBName
				}

				if ef.PrimaryKey {
					if !utils.CheckTruth(ef.TagSettings["PRIMARYKEY"]) {
						ef.PrimaryKey = false
						if val, ok := ef.TagSettings["AUTOINCREMENT"]; !ok || !utils.CheckTruth(val) {
							ef.AutoIncrement = false
						}
						if !ef.AutoIncrement && ef.DefaultValue == "" {
							ef.HasDefaultValue = false
						}
					}
				}

				for key, value := range field.TagSettings {
					switch key {
					case "EMBEDDED", "EMBEDDEDPREFIX":
					default:
						ef.TagSettings[key] = value
					}
				}
			}
		default:
			schema.err = fmt.Errorf("%w: %s.%s cannot embed %s", ErrUnsupportedType, schema.Name, field.Name, kind)
		}
		return field
	}

	// Resolve the storage type and field kind: enum interface first, then
	// explicit DataTyper, then the type map, then the Go kind family, then
	// text-marshalable types, and finally codec-backed composites and
	// collections.
	if enumVals := enumValuesOf(fieldValue); len(enumVals) > 0 {
		field.Kind = KindEnum
		field.EnumValues = enumVals
		if field.DataType != String && field.DataType != Int && field.DataType != Uint {
			schema.err = fmt.Errorf("%w: %s.%s enum must have a string or integer base",
				ErrUnsupportedType, schema.Name, field.Name)
			return field
		}
		field.StorageType = kindStorageType(field)
	} else if dataTyper, ok := fieldValue.Interface().(DataTyper); ok {
		field.Kind = KindScalar
		field.StorageType = dataTyper.SQLType()
	} else if st, ok := schema.opts.TypeMap[field.IndirectFieldType]; ok {
		field.Kind = KindScalar
		field.StorageType = st
	} else if field.DataType != "" {
		field.Kind = KindScalar
		field.StorageType = kindStorageType(field)
	} else if textCodecable(field.IndirectFieldType) {
		field.Kind = KindScalar
		field.StorageType = sqltype.String{Size: field.Size}
		field.Codec = "text"
	} else {
		switch field.IndirectFieldType.Kind() {
		case reflect.Struct, reflect.Map, reflect.Interface:
			field.Kind = KindComposite
			field.StorageType = schema.opts.JSONType
			field.Codec = schema.opts.StructCodec
		case reflect.Slice, reflect.Array:
			field.Kind = KindCollection
			field.StorageType = schema.opts.JSONType
			field.Codec = schema.opts.StructCodec
		default:
			schema.err = fmt.Errorf("%w: %s.%s has kind %s",
				ErrUnsupportedType, schema.Name, field.Name, field.IndirectFieldType.Kind())
			return field
		}
	}

	if typed, ok := field.StorageType.(sqltype.Typed); ok {
		if typed.Codec != "" {
			field.Codec = typed.Codec
		} else if field.Codec == "" {
			field.Codec = schema.opts.StructCodec
		}
	}

	if n, ok := field.StorageType.(sqltype.Numeric); ok && field.Precision > 0 {
		n.Precision, n.Scale = field.Precision, field.Scale
		field.StorageType = n
	}

	if val, ok := field.TagSettings["TYPE"]; ok {
		field.StorageType = sqltype.Raw{Def: val}
	}

	if val, ok := field.TagSettings["SERIALIZER"]; ok {
		field.Codec = val
	}
	if field.Codec != "" {
		if _, ok := GetCodec(field.Codec); !ok {
			schema.err = fmt.Errorf("%w: %s.%s wants codec %q",
				ErrCodecNotFound, schema.Name, field.Name, field.Codec)
			return field
		}
	}

	field.buildValidationRule()
	return field
}

// enumValuesOf unwraps the Enum interface on the value or its pointer.
func enumValuesOf(fieldValue reflect.Value) []string {
	if e, ok := fieldValue.Interface().(Enum); ok {
		return e.EnumValues()
	}
	if e, ok := reflect.Indirect(fieldValue).Interface().(Enum); ok {
		return e.EnumValues()
	}
	return nil
}

// setupValuerAndSetter binds reflection accessors to the field. The
// closures are index-path based so embedded (including pointer embedded)
// fields resolve without re-walking the schema.
func (field *Field) setupValuerAndSetter() {
	// ValueOf returns field's value and if it is zero
	fieldIndex := field.StructField.Index[0]
	switch {
	case len(field.StructField.Index) == 1 && fieldIndex >= 0:
		field.ValueOf = func(ctx context.Context, value reflect.Value) (interface{}, bool) {
			fieldValue := reflect.Indirect(value).Field(fieldIndex)
			return fieldValue.Interface(), fieldValue.IsZero()
		}
	default:
		field.ValueOf = func(ctx context.Context, v reflect.Value) (interface{}, bool) {
			v = reflect.Indirect(v)
			for _, fieldIdx := range field.StructField.Index {
				if fieldIdx >= 0 {
					v = v.Field(fieldIdx)
				} else {
					v = v.Field(-fieldIdx - 1)

					if !v.IsNil() {
						v = v.Elem()
					} else {
						return nil, true
					}
				}
			}
			return v.Interface(), v.IsZero()
		}
	}

	// ReflectValueOf returns field's settable reflect value
	switch {
	case len(field.StructField.Index) == 1 && fieldIndex >= 0:
		field.ReflectValueOf = func(ctx context.Context, value reflect.Value) reflect.Value {
			return reflect.Indirect(value).Field(fieldIndex)
		}
	default:
		field.ReflectValueOf = func(ctx context.Context, v reflect.Value) reflect.Value {
			v = reflect.Indirect(v)
			for idx, fieldIdx := range field.StructField.Index {
				if fieldIdx >= 0 {
					v = v.Field(fieldIdx)
				} else {
					v = v.Field(-fieldIdx - 1)
					if v.IsNil() {
						v.Set(reflect.New(v.Type().Elem()))
					}
					if idx < len(field.StructField.Index)-1 {
						v = v.Elem()
					}
				}
			}
			return v
		}
	}

	fallbackSetter := func(ctx context.Context, value reflect.Value, v interface{}, setter func(context.Context, reflect.Value, interface{}) error) (err error) {
		if v == nil {
			field.ReflectValueOf(ctx, value).Set(reflect.New(field.FieldType).Elem())
			return nil
		}

		reflectV := reflect.ValueOf(v)
		// Optimal value type acquisition for v
		reflectValType := reflectV.Type()

		if reflectValType.AssignableTo(field.FieldType) {
			field.ReflectValueOf(ctx, value).Set(reflectV)
			return
		} else if reflectValType.ConvertibleTo(field.FieldType) {
			field.ReflectValueOf(ctx, value).Set(reflectV.Convert(field.FieldType))
			return
		} else if field.FieldType.Kind() == reflect.Ptr {
			fieldValue := field.ReflectValueOf(ctx, value)
			fieldType := field.FieldType.Elem()

			if reflectValType.AssignableTo(fieldType) {
				if !fieldValue.IsValid() {
					fieldValue = reflect.New(fieldType)
				} else if fieldValue.IsNil() {
					fieldValue.Set(reflect.New(fieldType))
				}
				fieldValue.Elem().Set(reflectV)
				return
			} else if reflectValType.ConvertibleTo(fieldType) {
				if fieldValue.IsNil() {
					fieldValue.Set(reflect.New(fieldType))
				}

				fieldValue.Elem().Set(reflectV.Convert(fieldType))
				return
			}
		}

		if reflectV.Kind() == reflect.Ptr {
			if reflectV.IsNil() {
				field.ReflectValueOf(ctx, value).Set(reflect.New(field.FieldType).Elem())
			} else if reflectV.Type().Elem().AssignableTo(field.FieldType) {
				field.ReflectValueOf(ctx, value).Set(reflectV.Elem())
				return
			} else {
				err = setter(ctx, value, reflectV.Elem().Interface())
			}
		} else if valuer, ok := v.(driver.Valuer); ok {
			if v, err = valuer.Value(); err == nil {
				err = setter(ctx, value, v)
			}
		} else {
			return fmt.Errorf("failed to set value %#v to field %s", v, field.Name)
		}

		return
	}

	// Set
	switch field.FieldType.Kind() {
	case reflect.Bool:
		field.Set = func(ctx context.Context, value reflect.Value, v interface{}) error {
			switch data := v.(type) {
			case **bool:
				if data != nil && *data != nil {
					field.ReflectValueOf(ctx, value).SetBool(**data)
				}
			case bool:
				field.ReflectValueOf(ctx, value).SetBool(data)
			case int64:
				field.ReflectValueOf(ctx, value).SetBool(data > 0)
			case string:
				b, _ := strconv.ParseBool(data)
				field.ReflectValueOf(ctx, value).SetBool(b)
			default:
				return fallbackSetter(ctx, value, v, field.Set)
			}
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
			switch data := v.(type) {
			case **int64:
				if data != nil && *data != nil {
					field.ReflectValueOf(ctx, value).SetInt(**data)
				}
			case int64:
				field.ReflectValueOf(ctx, value).SetInt(data)
			case int:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case int8:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case int16:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case int32:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case uint:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case uint8:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case uint16:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case uint32:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case uint64:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case float32:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case float64:
				field.ReflectValueOf(ctx, value).SetInt(int64(data))
			case []byte:
				return field.Set(ctx, value, string(data))
			case string:
				if i, err := strconv.ParseInt(data, 0, 64); err == nil {
					field.ReflectValueOf(ctx, value).SetInt(i)
				} else {
					return err
				}
			case time.Time:
				if field.AutoCreateTime == UnixNanosecond || field.AutoUpdateTime == UnixNanosecond {
					field.ReflectValueOf(ctx, value).SetInt(data.UnixNano())
				} else if field.AutoCreateTime == UnixMillisecond || field.AutoUpdateTime == UnixMillisecond {
					field.ReflectValueOf(ctx, value).SetInt(data.UnixNano() / 1e6)
				} else {
					field.ReflectValueOf(ctx, value).SetInt(data.Unix())
				}
			case *time.Time:
				if data != nil {
					if field.AutoCreateTime == UnixNanosecond || field.AutoUpdateTime == UnixNanosecond {
						field.ReflectValueOf(ctx, value).SetInt(data.UnixNano())
					} else if field.AutoCreateTime == UnixMillisecond || field.AutoUpdateTime == UnixMillisecond {
						field.ReflectValueOf(ctx, value).SetInt(data.UnixNano() / 1e6)
					} else {
						field.ReflectValueOf(ctx, value).SetInt(data.Unix())
					}
				} else {
					field.ReflectValueOf(ctx, value).SetInt(0)
				}
			default:
				return fallbackSetter(ctx, value, v, field.Set)
			}
			return err
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
			switch data := v.(type) {
			case **uint64:
				if data != nil && *data != nil {
					field.ReflectValueOf(ctx, value).SetUint(**data)
				}
			case uint64:
				field.ReflectValueOf(ctx, value).SetUint(data)
			case uint:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case uint8:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case uint16:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case uint32:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case int64:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case int:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case int8:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case int16:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case int32:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case float32:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case float64:
				field.ReflectValueOf(ctx, value).SetUint(uint64(data))
			case []byte:
				return field.Set(ctx, value, string(data))
			case time.Time:
				if field.AutoCreateTime == UnixNanosecond || field.AutoUpdateTime == UnixNanosecond {
					field.ReflectValueOf(ctx, value).SetUint(uint64(data.UnixNano()))
				} else if field.AutoCreateTime == UnixMillisecond || field.AutoUpdateTime == UnixMillisecond {
					field.ReflectValueOf(ctx, value).SetUint(uint64(data.UnixNano() / 1e6))
				} else {
					field.ReflectValueOf(ctx, value).SetUint(uint64(data.Unix()))
				}
			case string:
				if i, err := strconv.ParseUint(data, 0, 64); err == nil {
					field.ReflectValueOf(ctx, value).SetUint(i)
				} else {
					return err
				}
			default:
				return fallbackSetter(ctx, value, v, field.Set)
			}
			return err
		}
	case reflect.Float32, reflect.Float64:
		field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
			switch data := v.(type) {
			case **float64:
				if data != nil && *data != nil {
					field.ReflectValueOf(ctx, value).SetFloat(**data)
				}
			case float64:
				field.ReflectValueOf(ctx, value).SetFloat(data)
			case float32:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case int64:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case int:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case int8:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case int16:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case int32:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case uint:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case uint8:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case uint16:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case uint32:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case uint64:
				field.ReflectValueOf(ctx, value).SetFloat(float64(data))
			case []byte:
				return field.Set(ctx, value, string(data))
			case string:
				if i, err := strconv.ParseFloat(data, 64); err == nil {
					field.ReflectValueOf(ctx, value).SetFloat(i)
				} else {
					return err
				}
			default:
				return fallbackSetter(ctx, value, v, field.Set)
			}
			return err
		}
	case reflect.String:
		field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
			switch data := v.(type) {
			case **string:
				if data != nil && *data != nil {
					field.ReflectValueOf(ctx, value).SetString(**data)
				}
			case string:
				field.ReflectValueOf(ctx, value).SetString(data)
			case []byte:
				field.ReflectValueOf(ctx, value).SetString(string(data))
			case int64, int, int8, int16, int32, uint, uint8, uint16, uint32, uint64, float32, float64:
				field.ReflectValueOf(ctx, value).SetString(utils.ToString(data))
			default:
				return fallbackSetter(ctx, value, v, field.Set)
			}
			return err
		}
	default:
		fieldValue := reflect.New(field.FieldType)
		switch fieldValue.Elem().Interface().(type) {
		case time.Time:
			field.Set = func(ctx context.Context, value reflect.Value, v interface{}) error {
				switch data := v.(type) {
				case **time.Time:
					if data != nil && *data != nil {
						field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(*data).Elem())
					}
				case time.Time:
					field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(v))
				case *time.Time:
					if data != nil {
						field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(data).Elem())
					} else {
						field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(time.Time{}))
					}
				case string:
					if t, err := now.Parse(data); err == nil {
						field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(t))
					} else {
						return fmt.Errorf("failed to set string %v to time.Time field %s, failed to parse it as time, got error %v", v, field.Name, err)
					}
				default:
					return fallbackSetter(ctx, value, v, field.Set)
				}
				return nil
			}
		case *time.Time:
			field.Set = func(ctx context.Context, value reflect.Value, v interface{}) error {
				switch data := v.(type) {
				case **time.Time:
					if data != nil && *data != nil {
						field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(*data))
					}
				case time.Time:
					fieldValue := field.ReflectValueOf(ctx, value)
					if fieldValue.IsNil() {
						fieldValue.Set(reflect.New(field.FieldType.Elem()))
					}
					fieldValue.Elem().Set(reflect.ValueOf(v))
				case *time.Time:
					field.ReflectValueOf(ctx, value).Set(reflect.ValueOf(v))
				case string:
					if t, err := now.Parse(data); err == nil {
						fieldValue := field.ReflectValueOf(ctx, value)
						if fieldValue.IsNil() {
							if v == "" {
								return nil
							}
							fieldValue.Set(reflect.New(field.FieldType.Elem()))
						}
						fieldValue.Elem().Set(reflect.ValueOf(t))
					} else {
						return fmt.Errorf("failed to set string %v to time.Time field %s, failed to parse it as time, got error %v", v, field.Name, err)
					}
				default:
					return fallbackSetter(ctx, value, v, field.Set)
				}
				return nil
			}
		default:
			if _, ok := fieldValue.Elem().Interface().(sql.Scanner); ok {
				// pointer scanner
				field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
					reflectV := reflect.ValueOf(v)
					if !reflectV.IsValid() {
						field.ReflectValueOf(ctx, value).Set(reflect.New(field.FieldType).Elem())
					} else if reflectV.Kind() == reflect.Ptr && reflectV.IsNil() {
						return
					} else if reflectV.Type().AssignableTo(field.FieldType) {
						field.ReflectValueOf(ctx, value).Set(reflectV)
					} else if reflectV.Kind() == reflect.Ptr {
						return field.Set(ctx, value, reflectV.Elem().Interface())
					} else {
						fieldValue := field.ReflectValueOf(ctx, value)
						if fieldValue.IsNil() {
							fieldValue.Set(reflect.New(field.FieldType.Elem()))
						}

						if valuer, ok := v.(driver.Valuer); ok {
							v, _ = valuer.Value()
						}

						err = fieldValue.Interface().(sql.Scanner).Scan(v)
					}
					return
				}
			} else if _, ok := fieldValue.Interface().(sql.Scanner); ok {
				// struct scanner
				field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
					reflectV := reflect.ValueOf(v)
					if !reflectV.IsValid() {
						field.ReflectValueOf(ctx, value).Set(reflect.New(field.FieldType).Elem())
					} else if reflectV.Kind() == reflect.Ptr && reflectV.IsNil() {
						return
					} else if reflectV.Type().AssignableTo(field.FieldType) {
						field.ReflectValueOf(ctx, value).Set(reflectV)
					} else if reflectV.Kind() == reflect.Ptr {
						return field.Set(ctx, value, reflectV.Elem().Interface())
					} else {
						if valuer, ok := v.(driver.Valuer); ok {
							if v, err = valuer.Value(); err != nil {
								return err
							}
						}

						return field.ReflectValueOf(ctx, value).Addr().Interface().(sql.Scanner).Scan(v)
					}
					return
				}
			} else {
				field.Set = func(ctx context.Context, value reflect.Value, v interface{}) (err error) {
					return fallbackSetter(ctx, value, v, field.Set)
				}
			}
		}
	}
}
