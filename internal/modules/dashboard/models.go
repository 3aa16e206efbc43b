package dashboard

// CashTicker is the sentinel ticker the backend uses for uninvested balance.
// Cash is tracked like a position but excluded from equity rows and weights.
const CashTicker = "CA$H"

// Position is a normalized, UI-ready holding row
type Position struct {
	ID                  string  `json:"id"`
	Ticker              string  `json:"ticker"`
	Name                string  `json:"name,omitempty"`
	Sector              string  `json:"sector"`
	Quantity            float64 `json:"quantity"`
	AvgCost             float64 `json:"avg_cost"`
	CurrentPrice        float64 `json:"current_price"`
	MarketValue         float64 `json:"market_value"`
	CostBasis           float64 `json:"cost_basis"`
	PnL                 float64 `json:"pnl"`
	PnLPercentage       float64 `json:"pnl_percentage"`
	DayChangePercentage float64 `json:"day_change_percentage"`
	Weight              float64 `json:"weight"`
}

// Quote is a normalized market quote
type Quote struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        float64 `json:"volume"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Datetime      string  `json:"datetime,omitempty"`
}

// Order is a normalized transaction row. Quantity keeps its sign - negative
// means sell - and is the single source of truth for Side. AbsQuantity and
// Cost are precomputed for table consumers.
type Order struct {
	OrderID     string  `json:"order_id"`
	PortfolioID string  `json:"portfolio_id,omitempty"`
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Side        string  `json:"side"`
	Quantity    float64 `json:"quantity"`
	AbsQuantity float64 `json:"abs_quantity"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
	Timestamp   string  `json:"timestamp"`

	// Raw carries the source row untouched so nothing is lost across
	// normalization.
	Raw map[string]interface{} `json:"-"`
}

// PerformancePoint is one sample of portfolio value over time
type PerformancePoint struct {
	Timestamp     string  `json:"timestamp"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Metrics holds the KPI values shown on the dashboard header
type Metrics struct {
	CurrentValue       float64 `json:"current_value"`
	InitialInvestment  float64 `json:"initial_investment"`
	TotalPnL           float64 `json:"total_pnl"`
	TotalPnLPercentage float64 `json:"total_pnl_percentage"`
}

// PeriodPnL is the profit/loss over the selected performance window
type PeriodPnL struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}
