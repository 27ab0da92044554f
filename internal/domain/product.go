package domain

import "time"

// Product is a catalog entry resolvable by SKU
type Product struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"` // GBP
}

// BasketItem is one line of the session basket. At most one item exists per
// SKU; repeated adds increment Qty instead of appending a duplicate line
type BasketItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// ScanEvent records a single product scan in the session history
type ScanEvent struct {
	SKU       string    `json:"sku"`
	Timestamp time.Time `json:"timestamp"`
}
