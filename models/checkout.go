package models

// CartLine is one client-submitted cart entry. The cart lives in browser
// storage, so every field here is untrusted input: prices are never accepted
// from the client and existence/stock are re-validated server-side.
type CartLine struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}
