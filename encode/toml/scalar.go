package toml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// =========================
// Strings & Keys
// =========================

// dumpStr quotes s as a TOML string. Text holding double quotes but no
// single quotes is written as a literal string, multi-line when it spans
// lines; everything else is a basic string with escapes.
func dumpStr(s string) string {
	return formatString(s, true)
}

func formatString(s string, multiline bool) string {
	if strings.ContainsRune(s, '"') && !strings.ContainsRune(s, '\'') && utf8.ValidString(s) {
		if !hasControl(s, false) {
			return "'" + s + "'"
		}
		if multiline && !hasControl(s, true) {
			// the newline right after the opening delimiter is trimmed by decoders
			return "'''\n" + s + "'''"
		}
	}
	return basicString(s)
}

// hasControl reports whether s holds a character a literal string cannot
// carry. Tabs are always allowed, newlines only when allowNewline is set.
func hasControl(s string, allowNewline bool) bool {
	for _, r := range s {
		switch {
		case r == '\t':
		case r == '\n' && allowNewline:
		case r < 0x20 || r == 0x7f:
			return true
		}
	}
	return false
}

func basicString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isBareKey(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		ch := k[i]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '_', ch == '-':
		default:
			return false
		}
	}
	return true
}

// quoteKey returns k as a bare key when possible, otherwise as a
// single-line quoted key.
func quoteKey(k string) string {
	if isBareKey(k) {
		return k
	}
	return formatString(k, false)
}

// =========================
// Numbers, Booleans, Times
// =========================

var exponentFixer = strings.NewReplacer("e+0", "e+", "e-0", "e-")

// formatFloat writes the shortest digits that read back as f, switching to
// exponent form outside [1e-4, 1e16).
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if f != 0 {
		e := strconv.FormatFloat(f, 'e', -1, bitSize)
		exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if err == nil && (exp < -4 || exp >= 16) {
			return exponentFixer.Replace(e)
		}
	}
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func dumpString(s string) (string, error) { return dumpStr(s), nil }

func dumpBool(b bool) (string, error) { return strconv.FormatBool(b), nil }

func dumpInt(i int) (string, error) { return strconv.Itoa(i), nil }

func dumpInt64(i int64) (string, error) { return strconv.FormatInt(i, 10), nil }

func dumpFloat(f float64) (string, error) { return formatFloat(f, 64), nil }

// timeLayout is RFC 3339 with trimmed fractional seconds; a zero offset
// prints as Z.
const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// dumpTime rejects offsets with a seconds part, which TOML cannot carry.
func dumpTime(t time.Time) (string, error) {
	if _, off := t.Zone(); off%60 != 0 {
		return "", fmt.Errorf("toml: %w: offset of %v is not whole minutes", ErrUnsupportedType, t)
	}
	return t.Format(timeLayout), nil
}
