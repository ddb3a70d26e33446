package logger

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

func isPrintable(s []byte) bool {
	for _, r := range s {
		if !unicode.IsPrint(rune(r)) {
			return false
		}
	}
	return true
}

// ExplainSQL interpolates vars into sql's placeholders for log output.
// The generated SQL is not safe to execute. numericPlaceholder matches
// positional placeholders and must capture the position as group 1 ($1,
// @p1); when nil, `?` placeholders are filled in order.
func ExplainSQL(sql string, numericPlaceholder *regexp.Regexp, escaper string, vars ...interface{}) string {
	if len(vars) == 0 {
		return sql
	}

	literals := make([]string, len(vars))
	for idx, v := range vars {
		literals[idx] = sqlLiteral(escaper, v)
	}

	if numericPlaceholder == nil {
		var (
			out strings.Builder
			idx int
		)
		out.Grow(len(sql))
		for _, b := range []byte(sql) {
			if b == '?' && idx < len(literals) {
				out.WriteString(literals[idx])
				idx++
				continue
			}
			out.WriteByte(b)
		}
		return out.String()
	}

	// Rewrite $3 to the sentinel $$3$$ first so positions survive
	// out-of-order replacement.
	sql = numericPlaceholder.ReplaceAllString(sql, "$$$$$1$$$$")
	for idx, lit := range literals {
		sql = strings.Replace(sql, "$$"+strconv.Itoa(idx+1)+"$$", lit, 1)
	}
	return sql
}

func sqlLiteral(escaper string, v interface{}) string {
	if valuer, ok := v.(driver.Valuer); ok {
		v, _ = valuer.Value()
	}

	escape := func(s string) string {
		return escaper + strings.ReplaceAll(s, escaper, `\`+escaper) + escaper
	}

	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return escaper + v.Format("2006-01-02 15:04:05") + escaper
	case *time.Time:
		if v == nil {
			return "NULL"
		}
		return escaper + v.Format("2006-01-02 15:04:05") + escaper
	case []byte:
		if isPrintable(v) {
			return escape(string(v))
		}
		return escaper + "<binary>" + escaper
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.6f", v)
	case string:
		return escape(v)
	default:
		if v == nil {
			return "NULL"
		}
		return escape(fmt.Sprint(v))
	}
}
