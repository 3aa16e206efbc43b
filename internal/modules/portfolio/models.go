// Package portfolio implements portfolio and position management: CRUD,
// ownership checks, and present-value calculation against live quotes.
package portfolio

// CashTicker is the reserved ticker that tracks a portfolio's cash balance.
// It is stored as a regular position with quantity equal to the balance.
const CashTicker = "CA$H"

// Portfolio represents a user's portfolio
type Portfolio struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	CreatedAt   string `json:"created_at"`
	LastUpdated string `json:"last_updated"`
}

// Position represents a holding in a portfolio. Quantity is the number of
// shares held, or the cash balance for the CA$H row.
type Position struct {
	PortfolioID string  `json:"-"`
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	Sector      string  `json:"sector"`
	Quantity    float64 `json:"quantity"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`

	// Value is quantity times latest close (or the cash balance for the
	// cash row). Populated on read paths that valuate, zero otherwise.
	Value float64 `json:"value"`
}

// CreateRequest is the payload for creating a portfolio
type CreateRequest struct {
	Name              string  `json:"name"`
	InitialInvestment float64 `json:"initial_investment"`
}

// Detail is the full portfolio view returned by the detail endpoint
type Detail struct {
	Portfolio
	PresentValue float64             `json:"present_value"`
	CashBalance  float64             `json:"cash_balance"`
	Positions    map[string]Position `json:"positions"`
}
