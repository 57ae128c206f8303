package cart

import (
	"math"

	"github.com/uchsash/medistore/api/validators"
	cartsvc "github.com/uchsash/medistore/internal/cart"
)

const (
	maxItemIDLen      = 128
	maxDisplayNameLen = 256
)

type addItemRequest struct {
	ItemID      string  `json:"itemId" validate:"required,max=128"`
	DisplayName string  `json:"displayName" validate:"required,max=256"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
	ImageRef    *string `json:"imageRef,omitempty" validate:"omitempty,max=2048"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,min=1,max=2147483647"`
}

func (r addItemRequest) toItem() (cartsvc.Item, int) {
	qty := 1
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	return cartsvc.Item{
		ItemID:      validators.SanitizeString(r.ItemID, maxItemIDLen),
		DisplayName: validators.SanitizeString(r.DisplayName, maxDisplayNameLen),
		UnitPrice:   r.UnitPrice,
		ImageRef:    r.ImageRef,
	}, qty
}

type setQuantityRequest struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

func (r setQuantityRequest) value() float64 {
	if r.Quantity == nil || math.IsNaN(*r.Quantity) {
		return 1
	}
	return *r.Quantity
}
