package matcher

import "strings"

// NormalizeInvoiceNumber keeps only the ASCII letters and digits of an
// invoice number, in their original order and case. Separators such as
// "-", "/", spaces and dots that differ between the firm's books and the
// portal are dropped.
//
// An invoice number without any letter or digit normalizes to "" and so
// equals a blank invoice number on the other side. The exact pass keeps that
// match.
func NormalizeInvoiceNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
