package cart

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultKey is the storage key the cart lives under.
const DefaultKey = "medistore_cart"

// Line is one purchasable item and its quantity. The JSON layout is the
// persisted format and must stay stable.
type Line struct {
	ItemID      string  `json:"itemId"`
	DisplayName string  `json:"displayName"`
	UnitPrice   float64 `json:"unitPrice"`
	ImageRef    *string `json:"imageRef,omitempty"`
	Quantity    int     `json:"quantity"`
}

// Item is a line before a quantity is attached.
type Item struct {
	ItemID      string
	DisplayName string
	UnitPrice   float64
	ImageRef    *string
}

func (i Item) line(qty int) Line {
	return Line{
		ItemID:      i.ItemID,
		DisplayName: i.DisplayName,
		UnitPrice:   i.UnitPrice,
		ImageRef:    i.ImageRef,
		Quantity:    qty,
	}
}

// Snapshot is what observers receive after every change.
type Snapshot struct {
	Items []Line
	Count int
}

// Subtotal is the snapshot's price total rounded to cents.
func (s Snapshot) Subtotal() decimal.Decimal {
	return subtotalOf(s.Items)
}

// decodeLines never fails: anything that is not a JSON array of lines is an empty cart.
func decodeLines(raw string) []Line {
	if raw == "" {
		return []Line{}
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil || lines == nil {
		return []Line{}
	}
	return lines
}

func encodeLines(lines []Line) (string, error) {
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func countOf(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

func subtotalOf(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// MaxQuantity bounds a single line.
const MaxQuantity = math.MaxInt32

func clampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

// addQuantity merges qty into cur, saturating at MaxQuantity instead of wrapping.
func addQuantity(cur, qty int) int {
	cur = clampQuantity(cur)
	if qty > 0 && qty > MaxQuantity-cur {
		return MaxQuantity
	}
	if qty < 0 && qty < 1-cur {
		return 1
	}
	return cur + qty
}
