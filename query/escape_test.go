package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	q "github.com/manojoshi/osorm/query"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "miller", "miller"},
		{"spaces untouched", "go tools", "go tools"},
		{"plus and star", "a+b*c", `a\+b\*c`},
		{"boolean syntax", "a&&b||c", `a\&\&b\|\|c`},
		{"brackets and braces", `[a]{b}(c)`, `\[a\]\{b\}\(c\)`},
		{"quotes and colon", `k:"v"`, `k\:\"v\"`},
		{"backslash", `a\b`, `a\\b`},
		{"comparison and caret", "a<b>c^2", `a\<b\>c\^2`},
		{"tilde question slash", "a~b?c/d", `a\~b\?c\/d`},
		{"minus equals bang", "a-b=c!", `a\-b\=c\!`},
		{"empty", "", ""},
		{"unicode preserved", "héllo wörld", "héllo wörld"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, q.Escape(tt.in))
		})
	}
}
