package output

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// errInvalidJSON is returned for a record that is not well-formed JSON.
var errInvalidJSON = errors.New("invalid JSON")

// encoder writes decoded JSON values one member per line, with ": " after
// keys. Strings escape only quotes, backslashes and control characters.
type encoder struct {
	buf *bytes.Buffer
}

func (e encoder) newline(depth int) {
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(Indent)
	}
}

// value writes v, which starts at nesting level depth.
func (e encoder) value(v gjson.Result, depth int) error {
	switch v.Type {
	case gjson.Null:
		e.buf.WriteString("null")
	case gjson.False:
		e.buf.WriteString("false")
	case gjson.True:
		e.buf.WriteString("true")
	case gjson.Number:
		return e.number(v.Raw)
	case gjson.String:
		e.str(v.Str)
	default:
		if v.IsArray() {
			return e.array(v, depth)
		}
		if v.IsObject() {
			return e.object(v, depth)
		}
		return errInvalidJSON
	}
	return nil
}

func (e encoder) array(v gjson.Result, depth int) error {
	items := v.Array()
	if len(items) == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.value(item, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}

// object writes each key once, at the position of its first occurrence,
// with the value of its last one.
func (e encoder) object(v gjson.Result, depth int) error {
	var keys []string
	values := make(map[string]gjson.Result)
	v.ForEach(func(k, member gjson.Result) bool {
		key := k.String()
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = member
		return true
	})

	if len(keys) == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	e.buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		e.str(key)
		e.buf.WriteString(": ")
		if err := e.value(values[key], depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

// str writes s quoted. Non-ASCII text is written as is.
func (e encoder) str(s string) {
	e.buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			e.buf.WriteString(`\"`)
		case '\\':
			e.buf.WriteString(`\\`)
		case '\n':
			e.buf.WriteString(`\n`)
		case '\r':
			e.buf.WriteString(`\r`)
		case '\t':
			e.buf.WriteString(`\t`)
		case '\b':
			e.buf.WriteString(`\b`)
		case '\f':
			e.buf.WriteString(`\f`)
		default:
			if c < 0x20 {
				fmt.Fprintf(e.buf, `\u%04x`, c)
			} else {
				e.buf.WriteByte(c)
			}
		}
	}
	e.buf.WriteByte('"')
}

// number writes integers digit for digit and fractions or exponents as
// the shortest float that round-trips: 1.50 -> 1.5, 1e2 -> 100.0.
func (e encoder) number(raw string) error {
	if !strings.ContainsAny(raw, ".eE") {
		if raw == "-0" {
			raw = "0"
		}
		e.buf.WriteString(raw)
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("number %s: %w", raw, err)
	}
	e.buf.WriteString(formatFloat(f))
	return nil
}

// formatFloat uses positional notation for exponents in [-4, 16) and
// scientific notation with a signed two-digit exponent otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
