package cart

import (
	cartsvc "github.com/uchsash/medistore/internal/cart"
)

type cartResponse struct {
	Items    []cartsvc.Line `json:"items"`
	Count    int            `json:"count"`
	Subtotal string         `json:"subtotal"`
}

func newCartResponse(snap cartsvc.Snapshot) cartResponse {
	items := snap.Items
	if items == nil {
		items = []cartsvc.Line{}
	}
	return cartResponse{
		Items:    items,
		Count:    snap.Count,
		Subtotal: snap.Subtotal().StringFixed(2),
	}
}

type countResponse struct {
	Count int `json:"count"`
}
