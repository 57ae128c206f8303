// Package roles maps upstream user roles onto storefront roles and decides
// which list views each role may browse.
package roles

import (
	"strings"

	"github.com/uchsash/medistore/internal/query"
)

type Role string

const (
	Admin    Role = "admin"
	Seller   Role = "seller"
	Customer Role = "customer"
)

// Normalize accepts ADMIN, SELLER or CUSTOMER in any case. Anything else,
// including non-strings, is a customer.
func Normalize(role any) Role {
	s, ok := role.(string)
	if !ok {
		return Customer
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return Admin
	case "SELLER":
		return Seller
	default:
		return Customer
	}
}

var browsable = map[Role]map[string]bool{
	Customer: {
		query.ResourceMedicines:      true,
		query.ResourceCustomerOrders: true,
	},
	Seller: {
		query.ResourceMedicines:    true,
		query.ResourceMyMedicines:  true,
		query.ResourceSellerOrders: true,
	},
	Admin: {
		query.ResourceMedicines:    true,
		query.ResourceAdminUsers:   true,
		query.ResourceAdminOrders:  true,
		query.ResourceAdminReviews: true,
	},
}

// CanBrowse reports whether role may open the resource's list view.
func CanBrowse(role Role, resource string) bool {
	return browsable[role][resource]
}
