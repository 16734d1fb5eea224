package cart

import "github.com/shopspring/decimal"

// TaxRate is the fixed regional sales tax rate applied to every order.
var TaxRate = decimal.RequireFromString("0.085")

// Totals computes subtotal, tax and total for a list of cart items using
// exact decimal arithmetic: subtotal is the sum of price times quantity per
// line, tax is subtotal times TaxRate, total is subtotal plus tax. The
// results are unrounded; callers format or round for display and storage.
// An empty list yields all zeros.
func Totals(items []Item) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
	}
	tax = subtotal.Mul(TaxRate)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}
