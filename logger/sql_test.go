package logger_test

import (
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/jinzhu/now"

	"github.com/aachurin/sqldantic/logger"
)

type role string

func (r role) Value() (driver.Value, error) {
	return string(r), nil
}

func TestExplainSQL(t *testing.T) {
	type testcase struct {
		SQL           string
		NumericRegexp *regexp.Regexp
		Vars          []interface{}
		Result        string
	}

	var (
		tt     = now.MustParse("2020-02-23 11:10:10")
		myrole = role("admin")
	)

	testcases := []testcase{
		{
			SQL:           "create table users (name, age, height, actived, bytes, create_at, email, role) values (?, ?, ?, ?, ?, ?, ?, ?)",
			NumericRegexp: nil,
			Vars:          []interface{}{"jinzhu", 1, 999.99, true, []byte("12345"), tt, "w@g.com", myrole},
			Result:        `create table users (name, age, height, actived, bytes, create_at, email, role) values ("jinzhu", 1, 999.990000, true, "12345", "2020-02-23 11:10:10", "w@g.com", "admin")`,
		},
		{
			SQL:           "create table users (name, age, height, actived, bytes, create_at, email, role) values (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8)",
			NumericRegexp: regexp.MustCompile(`@p(\d+)`),
			Vars:          []interface{}{"jinzhu", 1, 999.99, true, []byte("12345"), tt, "w@g.com", myrole},
			Result:        `create table users (name, age, height, actived, bytes, create_at, email, role) values ("jinzhu", 1, 999.990000, true, "12345", "2020-02-23 11:10:10", "w@g.com", "admin")`,
		},
		{
			SQL:           "create table users (name, age, height, actived, bytes, create_at, email, role) values ($3, $4, $1, $2, $7, $8, $5, $6)",
			NumericRegexp: regexp.MustCompile(`\$(\d+)`),
			Vars:          []interface{}{999.99, true, "jinzhu", 1, "w@g.com", myrole, []byte("12345"), tt},
			Result:        `create table users (name, age, height, actived, bytes, create_at, email, role) values ("jinzhu", 1, 999.990000, true, "12345", "2020-02-23 11:10:10", "w@g.com", "admin")`,
		},
		{
			SQL:           "select * from users where email = ? and deleted_at is ?",
			NumericRegexp: nil,
			Vars:          []interface{}{`w@g."com`, nil},
			Result:        `select * from users where email = "w@g.\"com" and deleted_at is NULL`,
		},
		{
			SQL:           "insert into blobs (data) values (?)",
			NumericRegexp: nil,
			Vars:          []interface{}{[]byte{0x00, 0x01, 0x02}},
			Result:        `insert into blobs (data) values ("<binary>")`,
		},
		{
			SQL:           "update users set age = ? where id = ?",
			NumericRegexp: nil,
			Vars:          []interface{}{uint64(30), int64(5)},
			Result:        `update users set age = 30 where id = 5`,
		},
	}

	for idx, tc := range testcases {
		if result := logger.ExplainSQL(tc.SQL, tc.NumericRegexp, `"`, tc.Vars...); result != tc.Result {
			t.Errorf("case #%v: expect %v, but got %v", idx, tc.Result, result)
		}
	}
}
