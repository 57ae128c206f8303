package roles

import (
	"testing"

	"github.com/uchsash/medistore/internal/query"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   any
		want Role
	}{
		{"ADMIN", Admin},
		{"admin", Admin},
		{" Seller ", Seller},
		{"CUSTOMER", Customer},
		{"superuser", Customer},
		{"", Customer},
		{nil, Customer},
		{42, Customer},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanBrowse(t *testing.T) {
	if !CanBrowse(Customer, query.ResourceMedicines) {
		t.Fatal("customers browse medicines")
	}
	if !CanBrowse(Customer, query.ResourceCustomerOrders) {
		t.Fatal("customers browse their own orders")
	}
	if CanBrowse(Customer, query.ResourceAdminUsers) {
		t.Fatal("customers must not browse admin users")
	}
	if CanBrowse(Seller, query.ResourceCustomerOrders) || CanBrowse(Admin, query.ResourceCustomerOrders) {
		t.Fatal("order history is a customer view")
	}
	if !CanBrowse(Seller, query.ResourceMyMedicines) || !CanBrowse(Seller, query.ResourceSellerOrders) {
		t.Fatal("sellers browse their own medicines and orders")
	}
	if CanBrowse(Admin, query.ResourceMyMedicines) {
		t.Fatal("admins have no seller-only views")
	}
	for _, r := range []string{query.ResourceAdminUsers, query.ResourceAdminOrders, query.ResourceAdminReviews} {
		if !CanBrowse(Admin, r) {
			t.Fatalf("admin should browse %s", r)
		}
	}
	if CanBrowse(Role("ghost"), query.ResourceMedicines) {
		t.Fatal("unknown roles browse nothing")
	}
}
