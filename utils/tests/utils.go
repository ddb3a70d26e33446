package tests

import (
	"database/sql/driver"
	"fmt"
	"go/ast"
	"reflect"
	"testing"
	"time"

	"github.com/aachurin/sqldantic/utils"
)

// AssertObjEqual compares the named fields of two structs, one subtest
// per field.
func AssertObjEqual(t *testing.T, got, expect interface{}, names ...string) {
	for _, name := range names {
		gotField := reflect.Indirect(reflect.ValueOf(got)).FieldByName(name).Interface()
		expectField := reflect.Indirect(reflect.ValueOf(expect)).FieldByName(name).Interface()
		t.Run(name, func(t *testing.T) {
			AssertEqual(t, gotField, expectField)
		})
	}
}

// AssertEqual is a loose equality check for fixtures: pointers compare by
// what they point at, driver.Valuer values by their Value result, times
// within a second, slices and structs element by element in subtests, and
// convertible types after conversion.
func AssertEqual(t *testing.T, got, expect interface{}) {
	if reflect.DeepEqual(got, expect) || fmt.Sprint(got) == fmt.Sprint(expect) {
		return
	}

	if reflect.Indirect(reflect.ValueOf(got)).IsValid() != reflect.Indirect(reflect.ValueOf(expect)).IsValid() {
		t.Errorf("%v: expect: %+v, got %+v", utils.FileWithLineNum(), expect, got)
		return
	}

	got, expect = indirect(got), indirect(expect)
	gv, ev := reflect.ValueOf(got), reflect.ValueOf(expect)
	if gv.IsValid() != ev.IsValid() {
		t.Errorf("%v: expect: %+v, got %+v", utils.FileWithLineNum(), expect, got)
		return
	}

	if gv.Kind() == reflect.Slice && ev.Kind() == reflect.Slice {
		if gv.Len() != ev.Len() {
			t.Errorf("%v: expect %v elements, got %v (expect: %+v, got %+v)",
				utils.FileWithLineNum(), ev.Len(), gv.Len(), expect, got)
			return
		}
		for i := 0; i < gv.Len(); i++ {
			t.Run(fmt.Sprintf("%s #%v", gv.Type().Name(), i), func(t *testing.T) {
				AssertEqual(t, gv.Index(i).Interface(), ev.Index(i).Interface())
			})
		}
		return
	}

	if gv.Kind() == reflect.Struct && ev.Kind() == reflect.Struct && gv.NumField() == ev.NumField() {
		exported := false
		for i := 0; i < gv.NumField(); i++ {
			if fieldStruct := gv.Type().Field(i); ast.IsExported(fieldStruct.Name) {
				exported = true
				field := gv.Field(i)
				expectField := ev.Field(i)
				t.Run(fieldStruct.Name, func(t *testing.T) {
					AssertEqual(t, field.Interface(), expectField.Interface())
				})
			}
		}
		if exported {
			return
		}
	}

	switch {
	case gv.Type().ConvertibleTo(ev.Type()):
		got = gv.Convert(ev.Type()).Interface()
	case ev.Type().ConvertibleTo(gv.Type()):
		expect = ev.Convert(gv.Type()).Interface()
	default:
		t.Errorf("%v: expect: %#v, got %#v", utils.FileWithLineNum(), expect, got)
		return
	}

	if !looseEqual(got, expect) {
		t.Errorf("%v: expect: %#v, got %#v", utils.FileWithLineNum(), expect, got)
	}
}

// indirect unwraps driver.Valuer values and dereferences pointers.
func indirect(v interface{}) interface{} {
	if valuer, ok := v.(driver.Valuer); ok {
		v, _ = valuer.Value()
	}
	if v != nil {
		v = reflect.Indirect(reflect.ValueOf(v)).Interface()
	}
	return v
}

func looseEqual(got, expect interface{}) bool {
	gotTime, ok1 := got.(time.Time)
	expectTime, ok2 := expect.(time.Time)
	if ok1 && ok2 {
		const format = "2006-01-02T15:04:05Z07:00"
		return gotTime.Round(time.Second).UTC().Format(format) == expectTime.Round(time.Second).UTC().Format(format) ||
			gotTime.Truncate(time.Second).UTC().Format(format) == expectTime.Truncate(time.Second).UTC().Format(format)
	}
	return fmt.Sprint(got) == fmt.Sprint(expect)
}

func Now() *time.Time {
	now := time.Now()
	return &now
}
