package domain

import "encoding/json"

// Money leaves the API with exactly two decimal places. Decoding keeps decimal's own
// UnmarshalJSON, which accepts both forms.

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(p), p.Price.StringFixed(2)})
}

func (c Coupon) MarshalJSON() ([]byte, error) {
	type plain Coupon
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain(c), c.Amount.StringFixed(2)})
}

func (it OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		UnitPrice string `json:"unit_price"`
		Subtotal  string `json:"subtotal"`
	}{plain(it), it.UnitPrice.StringFixed(2), it.Subtotal().StringFixed(2)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain(o), o.Amount.StringFixed(2)})
}
