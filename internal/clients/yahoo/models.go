package yahoo

// MarketQuote is a single OHLCV bar in the shape the market API exposes.
// Field names (including "Stock Splits") match the historical backend
// contract and must not change.
type MarketQuote struct {
	Datetime    string  `json:"Datetime"`
	Open        float64 `json:"Open"`
	High        float64 `json:"High"`
	Low         float64 `json:"Low"`
	Close       float64 `json:"Close"`
	Volume      float64 `json:"Volume"`
	Dividends   float64 `json:"Dividends"`
	StockSplits float64 `json:"Stock Splits"`
}

// Bar is one historical OHLCV sample
type Bar struct {
	Datetime string  `json:"Datetime"`
	Open     float64 `json:"Open"`
	High     float64 `json:"High"`
	Low      float64 `json:"Low"`
	Close    float64 `json:"Close"`
	Volume   float64 `json:"Volume"`
}

// chartResponse represents the response from the Yahoo Finance chart API
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}
