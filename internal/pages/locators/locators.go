// Package locators names every control of the shop the page models touch.
// Page models and the in-memory shop used by tests share these values, so a
// selector change lands in one place.
package locators

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
)

// Login page.
var (
	LoginLogo     = dom.Class("login_logo")
	UsernameInput = dom.ID("user-name")
	PasswordInput = dom.ID("password")
	LoginButton   = dom.ID("login-button")
)

// ErrorBanner is the in-page error shown by the login and checkout forms, and
// ErrorDismiss the close button inside it.
var (
	ErrorBanner  = dom.XPath("//h3[@data-test='error']")
	ErrorDismiss = dom.XPath("//h3[@data-test='error']//button")
)

// Inventory page and the header shared by the logged-in pages.
var (
	InventoryList  = dom.Class("inventory_list")
	InventoryItem  = dom.Class("inventory_item")
	InventoryNames = dom.CSS(".inventory_item .inventory_item_name")
	InventoryPrice = dom.CSS(".inventory_item .inventory_item_price")
	SortDropdown   = dom.Class("product_sort_container")
	CartBadge      = dom.Class("shopping_cart_badge")
	CartLink       = dom.Class("shopping_cart_link")
	MenuButton     = dom.CSS("#react-burger-menu-btn, .bm-burger-button button")
	LogoutLink     = dom.ID("logout_sidebar_link")
)

// AddToCart is the add button on the inventory card of the named product.
func AddToCart(name string) dom.Locator {
	return itemControl("inventory_item", name, "ADD TO CART")
}

// InventoryRemove is the remove button on the inventory card of the named
// product.
func InventoryRemove(name string) dom.Locator {
	return itemControl("inventory_item", name, "REMOVE")
}

// Cart page.
var (
	CartList         = dom.Class("cart_list")
	CartItem         = dom.Class("cart_item")
	CartNames        = dom.CSS(".cart_item .inventory_item_name")
	CartPrices       = dom.CSS(".cart_item .inventory_item_price")
	CheckoutButton   = control("CHECKOUT")
	ContinueShopping = control("CONTINUE SHOPPING")
)

// CartRemove is the remove button on the cart row of the named product.
func CartRemove(name string) dom.Locator {
	return itemControl("cart_item", name, "REMOVE")
}

// Checkout information and overview pages.
var (
	CheckoutInfo    = dom.Class("checkout_info")
	FirstNameInput  = dom.ID("first-name")
	LastNameInput   = dom.ID("last-name")
	PostalCodeInput = dom.ID("postal-code")
	ContinueButton  = dom.XPath("//input[@type='submit'][" + upper("@value") + "='CONTINUE']")
	CancelButton    = control("CANCEL")

	SummaryInfo   = dom.Class("summary_info")
	SubtotalLabel = dom.Class("summary_subtotal_label")
	TaxLabel      = dom.Class("summary_tax_label")
	TotalLabel    = dom.Class("summary_total_label")
	FinishButton  = control("FINISH")
)

// Order confirmation page.
var (
	CompleteHeader = dom.Class("complete-header")
	CompleteText   = dom.Class("complete-text")
	BackHomeButton = control("BACK HOME")
)

// Values of the product sort dropdown.
const (
	SortNameAsc   = "az"
	SortNameDesc  = "za"
	SortPriceAsc  = "lohi"
	SortPriceDesc = "hilo"
)

// -- XPath building blocks --

const (
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// upper folds an XPath string expression to upper case. The site has shipped
// both "ADD TO CART" and "Add to cart" labels.
func upper(expr string) string {
	return fmt.Sprintf("translate(%s, '%s', '%s')", expr, lowerAlpha, upperAlpha)
}

// hasClass matches elements carrying the class token name.
func hasClass(name string) string {
	return fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), ' %s ')", name)
}

func labelled(label string) string {
	return fmt.Sprintf("*[self::button or self::a][contains(%s, %s)]",
		upper("normalize-space(.)"), dom.XPathLiteral(strings.ToUpper(label)))
}

// control locates a button or link whose label contains label, ignoring case.
func control(label string) dom.Locator {
	return dom.XPath("//" + labelled(label))
}

// itemControl locates the control labelled label inside the card of class
// card whose item name is exactly name.
func itemControl(card, name, label string) dom.Locator {
	return dom.XPath(fmt.Sprintf("//*[%s][.//*[%s][normalize-space(.)=%s]]//%s",
		hasClass(card), hasClass("inventory_item_name"), dom.XPathLiteral(name), labelled(label)))
}
