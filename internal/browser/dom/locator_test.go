package dom_test

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
)

func TestLocatorConstructors(t *testing.T) {
	tests := []struct {
		name string
		loc  dom.Locator
		want string
	}{
		{"css", dom.CSS(".inventory_item"), "css=.inventory_item"},
		{"xpath", dom.XPath("//h3[@data-test='error']"), "xpath=//h3[@data-test='error']"},
		{"id", dom.ID("user-name"), `css=[id="user-name"]`},
		{"id with quote", dom.ID(`we"ird`), `css=[id="we\"ird"]`},
		{"class", dom.Class("shopping_cart_badge"), "css=.shopping_cart_badge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.String())
			assert.False(t, tt.loc.IsZero())
		})
	}
	assert.True(t, dom.Locator{}.IsZero())
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Sauce Labs Backpack", "'Sauce Labs Backpack'"},
		{"", "''"},
		{"Test.allTheThings() T-Shirt (Red)", "'Test.allTheThings() T-Shirt (Red)'"},
		{"it's", `"it's"`},
		{`say "hi"`, `'say "hi"'`},
		{`it's "odd"`, `concat('it', "'", 's "odd"')`},
		{`'`, `"'"`},
		{`'"`, `concat("'", '"')`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := dom.XPathLiteral(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, unquoteXPath(t, got))
		})
	}
}

// unquoteXPath evaluates the subset of XPath that XPathLiteral emits: a
// quoted literal or a concat() of quoted literals.
func unquoteXPath(t testing.TB, expr string) string {
	t.Helper()
	if !strings.HasPrefix(expr, "concat(") {
		require.GreaterOrEqual(t, len(expr), 2)
		q := expr[0]
		require.Contains(t, `'"`, string(q))
		require.Equal(t, q, expr[len(expr)-1])
		inner := expr[1 : len(expr)-1]
		require.NotContains(t, inner, string(q))
		return inner
	}

	body := strings.TrimSuffix(strings.TrimPrefix(expr, "concat("), ")")
	var out strings.Builder
	for len(body) > 0 {
		q := body[0]
		require.Contains(t, `'"`, string(q), "argument must start with a quote in %q", expr)
		end := strings.IndexByte(body[1:], q)
		require.GreaterOrEqual(t, end, 0, "unterminated literal in %q", expr)
		out.WriteString(body[1 : end+1])
		body = strings.TrimPrefix(body[end+2:], ", ")
	}
	return out.String()
}

func FuzzXPathLiteral(f *testing.F) {
	f.Add([]byte("Sauce Labs Onesie"))
	f.Add([]byte(`a'b"c`))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		var item struct {
			Name   string
			Prefix string
		}
		if err := consumer.GenerateStruct(&item); err != nil {
			return
		}
		s := item.Prefix + item.Name
		assert.Equal(t, s, unquoteXPath(t, dom.XPathLiteral(s)))
	})
}
