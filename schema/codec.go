package schema

import (
	"bytes"
	"context"
	"database/sql"
	"encoding"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/netip"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

var codecMap = sync.Map{}

// Codec converts a field value between its Go representation and its
// storage representation. Scan is store-to-field, Value is field-to-store.
type Codec interface {
	Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) error
	CodecValuer
}

// CodecValuer codec valuer interface
type CodecValuer interface {
	Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error)
}

// RegisterCodec register codec under a name usable in `serializer:` tags
// and sqltype.Typed pairings
func RegisterCodec(name string, codec Codec) {
	codecMap.Store(strings.ToLower(name), codec)
}

// GetCodec get codec by name
func GetCodec(name string) (codec Codec, ok bool) {
	v, ok := codecMap.Load(strings.ToLower(name))
	if ok {
		codec, ok = v.(Codec)
	}
	return codec, ok
}

func init() {
	RegisterCodec("json", JSONCodec{})
	RegisterCodec("msgpack", MsgpackCodec{})
	RegisterCodec("gob", GobCodec{})
	RegisterCodec("text", TextCodec{})
	RegisterCodec("inet", InetCodec{})
	RegisterCodec("cidr", CidrCodec{})
	RegisterCodec("duration", DurationCodec{})
	RegisterCodec("unixtime", UnixtimeCodec{})
}

// JSONCodec stores any value as a JSON document
type JSONCodec struct{}

// Scan implements Codec
func (JSONCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) (err error) {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var bytesValue []byte
		switch v := dbValue.(type) {
		case []byte:
			bytesValue = v
		case string:
			bytesValue = []byte(v)
		default:
			return fmt.Errorf("failed to decode JSON value: %#v", dbValue)
		}

		if len(bytesValue) > 0 {
			err = json.Unmarshal(bytesValue, fieldValue.Interface())
		}
	}

	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return
}

// Value implements Codec
func (JSONCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	if isNilValue(fieldValue) {
		return nil, nil
	}
	result, err := json.Marshal(fieldValue)
	return string(result), err
}

// MsgpackCodec stores any value as a msgpack document in a binary column
type MsgpackCodec struct{}

// Scan implements Codec
func (MsgpackCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) (err error) {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var bytesValue []byte
		switch v := dbValue.(type) {
		case []byte:
			bytesValue = v
		case string:
			bytesValue = []byte(v)
		default:
			return fmt.Errorf("failed to decode msgpack value: %#v", dbValue)
		}

		if len(bytesValue) > 0 {
			err = msgpack.Unmarshal(bytesValue, fieldValue.Interface())
		}
	}

	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return
}

// Value implements Codec
func (MsgpackCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	if isNilValue(fieldValue) {
		return nil, nil
	}
	return msgpack.Marshal(fieldValue)
}

// GobCodec stores any gob-encodable value in a binary column
type GobCodec struct{}

// Scan implements Codec
func (GobCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) (err error) {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var bytesValue []byte
		switch v := dbValue.(type) {
		case []byte:
			bytesValue = v
		default:
			return fmt.Errorf("failed to decode gob value: %#v", dbValue)
		}
		if len(bytesValue) > 0 {
			decoder := gob.NewDecoder(bytes.NewBuffer(bytesValue))
			err = decoder.Decode(fieldValue.Interface())
		}
	}
	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return
}

// Value implements Codec
func (GobCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	if isNilValue(fieldValue) {
		return nil, nil
	}
	buf := new(bytes.Buffer)
	err := gob.NewEncoder(buf).Encode(fieldValue)
	return buf.Bytes(), err
}

// TextCodec stores encoding.TextMarshaler/TextUnmarshaler values in a
// string column
type TextCodec struct{}

// Scan implements Codec
func (TextCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) (err error) {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.New(field.FieldType).Elem())
		return nil
	}

	var bytesValue []byte
	switch v := dbValue.(type) {
	case []byte:
		bytesValue = v
	case string:
		bytesValue = []byte(v)
	default:
		return fmt.Errorf("failed to decode text value: %#v", dbValue)
	}

	fieldValue := reflect.New(field.IndirectFieldType)
	unmarshaler, ok := fieldValue.Interface().(encoding.TextUnmarshaler)
	if !ok {
		return fmt.Errorf("field %v does not implement encoding.TextUnmarshaler", field.Name)
	}
	if err = unmarshaler.UnmarshalText(bytesValue); err != nil {
		return err
	}
	return field.Set(ctx, dst, fieldValue.Elem().Interface())
}

// Value implements Codec
func (TextCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	if isNilValue(fieldValue) {
		return nil, nil
	}
	marshaler, ok := fieldValue.(encoding.TextMarshaler)
	if !ok {
		return nil, fmt.Errorf("field %v does not implement encoding.TextMarshaler", field.Name)
	}
	result, err := marshaler.MarshalText()
	return string(result), err
}

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// textCodecable reports whether t round-trips through TextCodec: MarshalText
// on the value, UnmarshalText on its pointer.
func textCodecable(t reflect.Type) bool {
	return t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// InetCodec stores netip.Addr values as their textual address form
type InetCodec struct{}

// Scan implements Codec
func (InetCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) error {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.New(field.FieldType).Elem())
		return nil
	}

	var s string
	switch v := dbValue.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("failed to decode inet value: %#v", dbValue)
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return err
	}
	return field.Set(ctx, dst, addr)
}

// Value implements Codec
func (InetCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	switch v := fieldValue.(type) {
	case netip.Addr:
		if !v.IsValid() {
			return nil, nil
		}
		return v.String(), nil
	case *netip.Addr:
		if v == nil || !v.IsValid() {
			return nil, nil
		}
		return v.String(), nil
	}
	return nil, fmt.Errorf("invalid field type %T for InetCodec, only netip.Addr supported", fieldValue)
}

// CidrCodec stores netip.Prefix values as their textual CIDR form
type CidrCodec struct{}

// Scan implements Codec
func (CidrCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) error {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.New(field.FieldType).Elem())
		return nil
	}

	var s string
	switch v := dbValue.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("failed to decode cidr value: %#v", dbValue)
	}

	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return err
	}
	return field.Set(ctx, dst, prefix)
}

// Value implements Codec
func (CidrCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	switch v := fieldValue.(type) {
	case netip.Prefix:
		if !v.IsValid() {
			return nil, nil
		}
		return v.String(), nil
	case *netip.Prefix:
		if v == nil || !v.IsValid() {
			return nil, nil
		}
		return v.String(), nil
	}
	return nil, fmt.Errorf("invalid field type %T for CidrCodec, only netip.Prefix supported", fieldValue)
}

// DurationCodec stores time.Duration values as integer nanoseconds
type DurationCodec struct{}

// Scan implements Codec
func (DurationCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) error {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.New(field.FieldType).Elem())
		return nil
	}

	switch v := dbValue.(type) {
	case int64:
		return field.Set(ctx, dst, time.Duration(v))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return err
		}
		return field.Set(ctx, dst, time.Duration(n))
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		return field.Set(ctx, dst, time.Duration(n))
	}
	return fmt.Errorf("failed to decode duration value: %#v", dbValue)
}

// Value implements Codec
func (DurationCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	switch v := fieldValue.(type) {
	case time.Duration:
		return int64(v), nil
	case *time.Duration:
		if v == nil {
			return nil, nil
		}
		return int64(*v), nil
	}
	return nil, fmt.Errorf("invalid field type %T for DurationCodec, only time.Duration supported", fieldValue)
}

// UnixtimeCodec stores time.Time values as integer epoch seconds
type UnixtimeCodec struct{}

// Scan implements Codec
func (UnixtimeCodec) Scan(ctx context.Context, field *Field, dst reflect.Value, dbValue interface{}) (err error) {
	if dbValue == nil {
		field.ReflectValueOf(ctx, dst).Set(reflect.New(field.FieldType).Elem())
		return nil
	}

	t := sql.NullInt64{}
	if err = t.Scan(dbValue); err == nil && t.Valid {
		err = field.Set(ctx, dst, time.Unix(t.Int64, 0).UTC())
	}
	return
}

// Value implements Codec
func (UnixtimeCodec) Value(ctx context.Context, field *Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	switch v := fieldValue.(type) {
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return v.Unix(), nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil, nil
		}
		return v.Unix(), nil
	}
	return nil, fmt.Errorf("invalid field type %T for UnixtimeCodec, only time.Time supported", fieldValue)
}

func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
