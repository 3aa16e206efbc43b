// Package orders implements order recording. An order's signed quantity is
// the single source of truth for its side: positive buys, negative sells.
// Cash deposits and withdrawals are orders against the CA$H ticker.
package orders

// Order represents an executed order
type Order struct {
	OrderID     string  `json:"order_id"`
	PortfolioID string  `json:"portfolio_id"`
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	Sector      string  `json:"sector"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Timestamp   string  `json:"timestamp"`
}

// CreateRequest is the payload for recording an order
type CreateRequest struct {
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	Sector      string  `json:"sector"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}
