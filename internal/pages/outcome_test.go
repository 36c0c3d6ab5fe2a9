package pages

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOutcome(t *testing.T) {
	t.Run("navigated", func(t *testing.T) {
		o := Navigated[string, int]("next")
		next, ok := o.Navigated()
		require.True(t, ok)
		assert.Equal(t, "next", next)

		_, _, rejected := o.Rejected()
		assert.False(t, rejected)
		assert.False(t, o.IsRejected())
		assert.Empty(t, o.Message())
	})

	t.Run("rejected", func(t *testing.T) {
		o := Rejected[string](42, "nope")
		_, ok := o.Navigated()
		assert.False(t, ok)

		same, msg, rejected := o.Rejected()
		require.True(t, rejected)
		assert.Equal(t, 42, same)
		assert.Equal(t, "nope", msg)
		assert.True(t, o.IsRejected())
	})

	t.Run("rejected with an empty message is still rejected", func(t *testing.T) {
		o := Rejected[string](1, "")
		assert.True(t, o.IsRejected())
	})
}

func TestClassifyLoginError(t *testing.T) {
	tests := map[string]LoginFailure{
		"Epic sadface: Sorry, this user has been locked out.":                       LockedOut,
		"Epic sadface: Username and password do not match any user in this service": CredentialMismatch,
		"Epic sadface: Username is required":                                        UsernameRequired,
		"Epic sadface: Password is required":                                        PasswordRequired,
		"":                                                                          LoginFailureUnknown,
		"Something else entirely":                                                   LoginFailureUnknown,
	}
	for msg, want := range tests {
		assert.Equal(t, want, ClassifyLoginError(msg), msg)
	}
	assert.Equal(t, "locked_out", LockedOut.String())
	assert.Equal(t, "LoginFailure(9)", LoginFailure(9).String())
}

func TestClassifyCheckoutError(t *testing.T) {
	tests := map[string]CheckoutField{
		"Error: First Name is required":  FieldFirstName,
		"Error: Last Name is required":   FieldLastName,
		"Error: Postal Code is required": FieldPostalCode,
		"":                               FieldNone,
	}
	for msg, want := range tests {
		assert.Equal(t, want, ClassifyCheckoutError(msg), msg)
	}
	assert.Equal(t, "postal_code", FieldPostalCode.String())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"$29.99", 2999, false},
		{"Item total: $29.99", 2999, false},
		{"Total: $32.39", 3239, false},
		{"Tax: $2.4", 240, false},
		{"$7", 700, false},
		{"  $0.05 ", 5, false},
		{"", 0, true},
		{"$", 0, true},
		{"$1.", 0, true},
		{"$1.234", 0, true},
		{"$-1.00", 0, true},
		{"$1.-5", 0, true},
		{"$+5.00", 0, true},
		{"$1.+5", 0, true},
		{"+$5.00", 0, true},
		{"$1.+", 0, true},
		{"$ 5.00", 0, true},
		{"$5.0 ", 500, false},
		{"$1_000.00", 0, true},
		{"free", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriceRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 1e12).Draw(t, "cents")
		const label = "Total: "
		text := fmt.Sprintf("%s$%d.%02d", label, cents/100, cents%100)
		got, err := ParsePrice(text)
		if err != nil || got != cents {
			t.Fatalf("ParsePrice(%q) = %d, %v", text, got, err)
		}
		sign := rapid.SampledFrom([]string{"+", "-"}).Draw(t, "sign")
		at := rapid.IntRange(len(label), len(text)).Draw(t, "at")
		signed := text[:at] + sign + text[at:]
		if _, err := ParsePrice(signed); err == nil {
			t.Fatalf("ParsePrice(%q) accepted a sign", signed)
		}
	})
}

func TestStripLabel(t *testing.T) {
	assert.Equal(t, "$29.99", stripLabel("Item total: $29.99"))
	assert.Equal(t, "$2.40", stripLabel("Tax: $2.40"))
	assert.Equal(t, "$32.39", stripLabel("$32.39"))
}

func TestSortCriterionValid(t *testing.T) {
	for _, c := range []SortCriterion{SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc} {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, SortCriterion("price").Valid())
}
