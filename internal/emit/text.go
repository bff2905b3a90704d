package emit

import (
	"fmt"
	"strings"
	"unicode"
)

// QuoteText renders s as an assembler string literal. Backslash and double
// quote are escaped, newline becomes \n and other non-printable runes become
// \xHH (or \u{HHHH} above one byte).
func QuoteText(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02X`, r)
		default:
			fmt.Fprintf(&b, `\u{%04X}`, r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// CountPlaceholders counts %d placeholders in dialogue text. "%%" is a
// literal percent sign. Any other verb is an error.
func CountPlaceholders(text string) (int, error) {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '%' {
			continue
		}
		if i+1 >= len(text) {
			return 0, fmt.Errorf("dangling %% at end of text")
		}
		switch text[i+1] {
		case 'd':
			n++
		case '%':
		default:
			return 0, fmt.Errorf("unsupported placeholder %%%c", text[i+1])
		}
		i++
	}
	return n, nil
}

// ValidateRaw checks a raw statement: one non-empty line, no control
// characters, and no ';' which would start an assembler comment and hide
// the rest of the line.
func ValidateRaw(stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return fmt.Errorf("%w: empty statement", ErrRawRejected)
	}
	for _, r := range stmt {
		if r == ';' {
			return fmt.Errorf("%w: %q contains ';'", ErrRawRejected, stmt)
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains control character %U", ErrRawRejected, stmt, r)
		}
	}
	return nil
}
