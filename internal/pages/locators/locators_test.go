package locators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlLabels(t *testing.T) {
	assert.Equal(t,
		"//*[self::button or self::a][contains(translate(normalize-space(.), 'abcdefghijklmnopqrstuvwxyz', 'ABCDEFGHIJKLMNOPQRSTUVWXYZ'), 'BACK HOME')]",
		BackHomeButton.Value)

	loc := AddToCart("Sauce Labs Backpack")
	assert.Contains(t, loc.Value, "contains(concat(' ', normalize-space(@class), ' '), ' inventory_item ')")
	assert.Contains(t, loc.Value, "[normalize-space(.)='Sauce Labs Backpack']")
	assert.Contains(t, loc.Value, "'ADD TO CART'")

	quoted := CartRemove(`Bob's "special" shirt`)
	assert.Contains(t, quoted.Value, `concat('Bob', "'", 's "special" shirt')`)
	assert.NotEqual(t, AddToCart("a"), InventoryRemove("a"))
}

func TestErrorDismissIsInsideBanner(t *testing.T) {
	assert.Contains(t, ErrorDismiss.Value, ErrorBanner.Value)
}
