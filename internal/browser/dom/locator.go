// browser/dom/locator.go
package dom

import (
	"fmt"
	"strings"
)

// Strategy selects how a Locator's value is interpreted by the driver.
type Strategy int

const (
	ByCSS Strategy = iota
	ByXPath
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Locator is a control reference: a query that is resolved against the live
// DOM on every access. It never holds an element handle.
type Locator struct {
	Strategy Strategy
	Value    string
}

// CSS returns a locator for a CSS selector.
func CSS(selector string) Locator { return Locator{Strategy: ByCSS, Value: selector} }

// XPath returns a locator for an XPath expression.
func XPath(expr string) Locator { return Locator{Strategy: ByXPath, Value: expr} }

// ID locates an element by its id attribute.
func ID(id string) Locator { return CSS(fmt.Sprintf("[id=%s]", cssString(id))) }

// Class locates elements carrying the given class name.
func Class(name string) Locator { return CSS("." + name) }

func (l Locator) String() string {
	return l.Strategy.String() + "=" + l.Value
}

// IsZero reports whether the locator has no query.
func (l Locator) IsZero() bool { return strings.TrimSpace(l.Value) == "" }

// XPathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// syntax, so values holding both quote kinds are assembled with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	args := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if p != "" {
			args = append(args, "'"+p+"'")
		}
		if i < len(parts)-1 {
			args = append(args, `"'"`)
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}

// cssString quotes s as a CSS string token.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}
