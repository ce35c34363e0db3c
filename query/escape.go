package query

import "github.com/manojoshi/osorm/internal"

// Escape backslash-escapes the characters the query-string parser
// treats as syntax: + - = & | > < ! ( ) { } [ ] ^ " ~ * ? : \ /
// Values lowered through Expression and Regexp bypass it.
func Escape(s string) string {
	sb := internal.GetBuilder()
	defer internal.PutBuilder(sb)

	for _, r := range s {
		switch r {
		case '\\', '+', '-', '=', '&', '|', '>', '<', '!',
			'(', ')', '{', '}', '[', ']', '^', '"', '~',
			'*', '?', ':', '/':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
