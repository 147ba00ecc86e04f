package domain

import "time"

// Sale is a completed order line as the vendor reports screen consumes it.
type Sale struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// SalesSummary is the derived vendor report: totals, order count, average
// ticket and the highlighted top product.
type SalesSummary struct {
	TotalSales    float64 `json:"totalSales"`
	TotalOrders   int     `json:"totalOrders"`
	AverageTicket float64 `json:"averageTicket"`
	TopProduct    string  `json:"topProduct"`
}

// Summarize derives the vendor report from raw sales. Missing totals count as
// zero; an empty list yields an empty summary with TopProduct "N/A".
func Summarize(sales []Sale) SalesSummary {
	s := SalesSummary{TopProduct: "N/A"}
	for _, sale := range sales {
		s.TotalSales += sale.Total
	}
	s.TotalOrders = len(sales)
	if s.TotalOrders > 0 {
		s.AverageTicket = s.TotalSales / float64(s.TotalOrders)
		s.TopProduct = sales[0].Product
	}
	return s
}
