package catalog

type CategoryRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Count struct {
	Reviews   int `json:"reviews,omitempty"`
	Medicines int `json:"medicines,omitempty"`
}

type Rating struct {
	Rating int `json:"rating"`
}

// Medicine is one row of the browse and seller listings.
type Medicine struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	Manufacturer string       `json:"manufacturer"`
	Stock        int          `json:"stock"`
	ImageURL     *string      `json:"imageUrl,omitempty"`
	CategoryID   string       `json:"categoryId,omitempty"`
	SellerID     string       `json:"sellerId,omitempty"`
	CreatedAt    string       `json:"createdAt"`
	UpdatedAt    string       `json:"updatedAt,omitempty"`
	Category     *CategoryRef `json:"category,omitempty"`
	Count        *Count       `json:"_count,omitempty"`
	Reviews      []Rating     `json:"reviews,omitempty"`
}

type ReviewAuthor struct {
	Name string `json:"name"`
}

type MedicineReview struct {
	ID        string       `json:"id"`
	Rating    int          `json:"rating"`
	Comment   *string      `json:"comment,omitempty"`
	CreatedAt string       `json:"createdAt"`
	User      ReviewAuthor `json:"user"`
}

// MedicineDetails is the single-medicine view including its reviews.
type MedicineDetails struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        float64          `json:"price"`
	Manufacturer string           `json:"manufacturer"`
	Stock        int              `json:"stock"`
	ImageURL     *string          `json:"imageUrl,omitempty"`
	CategoryID   string           `json:"categoryId"`
	Category     *CategoryRef     `json:"category,omitempty"`
	Reviews      []MedicineReview `json:"reviews"`
	Count        *Count           `json:"_count,omitempty"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Count     *Count `json:"_count,omitempty"`
}

type AdminUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type OrderMedicine struct {
	Name         string  `json:"name,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Price        float64 `json:"price,omitempty"`
}

type OrderItem struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"orderId,omitempty"`
	MedicineID string         `json:"medicineId,omitempty"`
	Quantity   int            `json:"quantity"`
	Price      float64        `json:"price"`
	Medicine   *OrderMedicine `json:"medicine,omitempty"`
}

type OrderCustomer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Order is shared by the admin, seller and customer order listings.
type Order struct {
	ID              string         `json:"id"`
	TotalAmount     float64        `json:"totalAmount"`
	ShippingAddress string         `json:"shippingAddress"`
	Status          string         `json:"status"`
	CreatedAt       string         `json:"createdAt"`
	Customer        *OrderCustomer `json:"customer,omitempty"`
	Items           []OrderItem    `json:"items"`
}

type ReviewUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ReviewMedicine struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AdminReview struct {
	ID         string          `json:"id"`
	Rating     int             `json:"rating"`
	Comment    *string         `json:"comment,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt,omitempty"`
	UserID     string          `json:"userId"`
	MedicineID string          `json:"medicineId"`
	User       *ReviewUser     `json:"user,omitempty"`
	Medicine   *ReviewMedicine `json:"medicine,omitempty"`
}
