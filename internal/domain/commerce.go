package domain

import "time"

// Types for the wider storefront surface: orders, addresses, payments,
// reviews, coupons and support. The data-access layer exposes typed calls for
// all of them; only the catalog, inventory and reports flows have a reference
// backend behind them.

// OrderItem is one product line inside an order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is a customer order as the checkout flow submits it.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Address is a delivery address on the customer profile.
type Address struct {
	ID         string `json:"id"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// PaymentMethod is a stored payment option (display data only).
type PaymentMethod struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Review is a product review.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Coupon is a discount code validation result.
type Coupon struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Valid    bool    `json:"valid"`
}

// SupportTicket is a customer support request.
type SupportTicket struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	Product string  `json:"product"`
	Sold    int     `json:"sold"`
	Revenue float64 `json:"revenue"`
}
