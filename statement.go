package sqldantic

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/aachurin/sqldantic/schema"
	"github.com/aachurin/sqldantic/sqltype"
)

// BindValues converts dest into the column names and driver arguments of
// an INSERT. Zero autoincrement and database-computed columns are omitted
// so the database fills them in. Defaults are applied and the value
// validated first, per the model's configuration.
func (b *Base) BindValues(ctx context.Context, dest interface{}) ([]string, []interface{}, error) {
	reg, err := b.registrationFor(dest)
	if err != nil {
		return nil, nil, err
	}
	if !reg.table {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotATable, reg.schema.Name)
	}
	sch := reg.schema

	rv := reflect.ValueOf(dest)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil, fmt.Errorf("%w: nil %s", ErrInvalidModelType, sch.Name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("%w: %T", ErrInvalidModelType, dest)
	}
	if !rv.CanAddr() {
		addressable := reflect.New(rv.Type())
		addressable.Elem().Set(rv)
		rv = addressable.Elem()
	}

	if err := sch.ApplyDefaults(ctx, rv); err != nil {
		return nil, nil, err
	}
	if !reg.config.SkipValidateOnBind {
		if err := b.validate.StructCtx(ctx, rv.Addr().Interface()); err != nil {
			return nil, nil, err
		}
	}

	var (
		columns []string
		values  []interface{}
	)
	for _, dbName := range sch.DBNames {
		field := sch.FieldsByDBName[dbName]
		if !field.Creatable {
			continue
		}
		value, zero := field.ValueOf(ctx, rv)
		if zero && (field.AutoIncrement ||
			(field.HasDefaultValue && field.DefaultValueInterface == nil && field.DefaultFunc == nil)) {
			continue
		}
		if field.Codec != "" {
			codec, ok := schema.GetCodec(field.Codec)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %q", ErrCodecNotFound, field.Codec)
			}
			if value, err = codec.Value(ctx, field, rv, value); err != nil {
				return nil, nil, fmt.Errorf("bind %s.%s: %w", sch.Name, field.Name, err)
			}
		}
		columns = append(columns, dbName)
		values = append(values, value)
	}
	return columns, values, nil
}

// InsertSQL renders an INSERT statement for dest with the dialect's
// placeholders, returning the ordered arguments alongside.
func (b *Base) InsertSQL(ctx context.Context, dialect sqltype.Dialect, dest interface{}) (string, []interface{}, error) {
	columns, values, err := b.BindValues(ctx, dest)
	if err != nil {
		return "", nil, err
	}
	sch, err := b.Schema(dest)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(dialect.Quote(sch.Table))
	sb.WriteString(" (")
	for i, column := range columns {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(dialect.Quote(column))
	}
	sb.WriteString(") VALUES (")
	for i := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(dialect.Placeholder(i + 1))
	}
	sb.WriteString(")")
	return sb.String(), values, nil
}

// SelectSQL renders a SELECT over every readable column of dest's table,
// in declaration order, without a WHERE clause.
func (b *Base) SelectSQL(dialect sqltype.Dialect, dest interface{}) (string, error) {
	reg, err := b.registrationFor(dest)
	if err != nil {
		return "", err
	}
	if !reg.table {
		return "", fmt.Errorf("%w: %s", ErrNotATable, reg.schema.Name)
	}
	sch := reg.schema

	var sb strings.Builder
	sb.WriteString("SELECT ")
	first := true
	for _, dbName := range sch.DBNames {
		if !sch.FieldsByDBName[dbName].Readable {
			continue
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(dialect.Quote(dbName))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(dialect.Quote(sch.Table))
	return sb.String(), nil
}

// ScanRow reads the current row into dest, matching columns by database
// name; columns without a matching field are discarded. Codec columns are
// decoded by their codec, everything else goes through the field setter's
// conversions. The scanned value is validated unless the model opts out.
func (b *Base) ScanRow(ctx context.Context, rows *sql.Rows, dest interface{}) error {
	reg, err := b.registrationFor(dest)
	if err != nil {
		return err
	}
	if !reg.table {
		return fmt.Errorf("%w: %s", ErrNotATable, reg.schema.Name)
	}
	sch := reg.schema

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: want a non-nil pointer, got %T", ErrInvalidModelType, dest)
	}
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrInvalidModelType, dest)
	}

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	holders := make([]interface{}, len(columns))
	for i := range holders {
		holders[i] = new(interface{})
	}
	if err := rows.Scan(holders...); err != nil {
		return err
	}

	for i, column := range columns {
		field := sch.LookUpField(column)
		if field == nil || !field.Readable || !field.HasColumn() {
			continue
		}
		dbValue := *holders[i].(*interface{})
		if field.Codec != "" {
			codec, ok := schema.GetCodec(field.Codec)
			if !ok {
				return fmt.Errorf("%w: %q", ErrCodecNotFound, field.Codec)
			}
			if err := codec.Scan(ctx, field, rv, dbValue); err != nil {
				return fmt.Errorf("scan %s.%s: %w", sch.Name, field.Name, err)
			}
		} else if err := field.Set(ctx, rv, dbValue); err != nil {
			return fmt.Errorf("scan %s.%s: %w", sch.Name, field.Name, err)
		}
	}

	if !reg.config.SkipValidateOnScan {
		return b.validate.StructCtx(ctx, rv.Addr().Interface())
	}
	return nil
}

// ScanRows drains rows into dest, a pointer to a slice of models or of
// model pointers.
func (b *Base) ScanRows(ctx context.Context, rows *sql.Rows, dest interface{}) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: want a non-nil pointer to a slice, got %T", ErrInvalidModelType, dest)
	}
	slice := rv.Elem()
	if slice.Kind() != reflect.Slice {
		return fmt.Errorf("%w: want a non-nil pointer to a slice, got %T", ErrInvalidModelType, dest)
	}

	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	for rows.Next() {
		elem := reflect.New(elemType)
		if err := b.ScanRow(ctx, rows, elem.Interface()); err != nil {
			return err
		}
		if isPtr {
			slice.Set(reflect.Append(slice, elem))
		} else {
			slice.Set(reflect.Append(slice, elem.Elem()))
		}
	}
	return rows.Err()
}
