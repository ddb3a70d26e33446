package tests

import (
	"database/sql/driver"
	"fmt"
)

// Token is a Scanner/Valuer string for exercising fields that bypass
// codec conversion.
type Token struct {
	raw string
}

func NewToken(s string) Token {
	return Token{raw: s}
}

func (t *Token) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		t.raw = v
	case []byte:
		t.raw = string(v)
	default:
		t.raw = fmt.Sprint(v)
	}
	return nil
}

func (t Token) Value() (driver.Value, error) {
	return t.raw, nil
}

func (t Token) String() string {
	return t.raw
}
