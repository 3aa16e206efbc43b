package dashboard

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Candidate field names per value, in precedence order. Multiple backend
// schema versions coexist in production, so each value is resolved by
// trying keys in sequence and taking the first that parses to a finite
// number.
var (
	quantityKeys = []string{"quantity", "qty", "shares", "qty_owned"}
	avgCostKeys  = []string{"avg_cost", "avgCost", "avg_price", "average_price", "average_cost", "avg_price_per_share"}
	priceKeys    = []string{"current_price", "currentPrice", "price", "last_price", "last_trade_price", "close_price", "Close"}
	marketKeys   = []string{"market_value", "marketValue", "value", "position_value", "current_value"}
	costKeys     = []string{"cost_basis", "costBasis", "cost", "book_value", "book_cost", "total_cost"}
	dayChgKeys   = []string{"day_change_percentage", "dayChangePercent", "changePercent"}
)

// NormalizePositions converts a raw positions payload (ticker -> record) and
// an optional raw quotes payload into normalized position rows. The cash
// sentinel is excluded. A malformed row degrades to zero-valued fields
// rather than failing the whole payload.
func NormalizePositions(positions map[string]interface{}, quotes map[string]interface{}) []Position {
	rows := make([]Position, 0, len(positions))

	for ticker, raw := range positions {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" || ticker == CashTicker {
			continue
		}

		p := asMap(raw)
		q := asMap(quotes[ticker])

		quantity := PickNumber(p, quantityKeys, 0)
		avgCost := PickNumber(p, avgCostKeys, 0)

		// Price: explicit position-level field first, then the quote close
		price := PickNumber(p, priceKeys, math.NaN())
		if math.IsNaN(price) {
			price = PickNumber(q, []string{"price", "Close"}, math.NaN())
		}

		// Market value and cost basis: prefer server-supplied values,
		// fall back to deriving from quantity
		marketValue := PickNumber(p, marketKeys, math.NaN())
		if math.IsNaN(marketValue) {
			unit := price
			if math.IsNaN(unit) {
				unit = avgCost
			}
			marketValue = quantity * unit
		}

		currentPrice := price
		if math.IsNaN(currentPrice) {
			if quantity != 0 {
				currentPrice = marketValue / quantity
			} else {
				currentPrice = 0
			}
		}

		costBasis := PickNumber(p, costKeys, math.NaN())
		if math.IsNaN(costBasis) {
			costBasis = quantity * avgCost
		}

		pnl := marketValue - costBasis
		pnlPct := 0.0
		if costBasis > 0 {
			pnlPct = pnl / costBasis * 100
		}

		id := pickString(p, "id")
		if id == "" {
			id = ticker
		}

		sector := pickString(p, "sector")
		if sector == "" {
			sector = "Other"
		}

		rows = append(rows, Position{
			ID:                  id,
			Ticker:              ticker,
			Name:                pickString(p, "name", "company_name"),
			Sector:              sector,
			Quantity:            quantity,
			AvgCost:             avgCost,
			CurrentPrice:        currentPrice,
			MarketValue:         marketValue,
			CostBasis:           costBasis,
			PnL:                 pnl,
			PnLPercentage:       pnlPct,
			DayChangePercentage: dayChangePercent(p, q),
		})
	}

	// Map iteration order is random; keep output deterministic
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })

	applyWeights(rows)
	return rows
}

// dayChangePercent resolves day change with a cascade: server-supplied
// percentage, quote-supplied percentage, derived from quote open/close, 0.
func dayChangePercent(p, q map[string]interface{}) float64 {
	if v := PickNumber(p, dayChgKeys, math.NaN()); !math.IsNaN(v) {
		return v
	}
	if v := PickNumber(q, []string{"changePercent", "change_percent"}, math.NaN()); !math.IsNaN(v) {
		return v
	}
	open := PickNumber(q, []string{"open", "Open"}, math.NaN())
	close := PickNumber(q, []string{"price", "Close"}, math.NaN())
	if !math.IsNaN(open) && open != 0 && !math.IsNaN(close) {
		return (close - open) / open * 100
	}
	return 0
}

// applyWeights computes each row's share of total market value. All weights
// are 0 when the total is zero or non-finite.
func applyWeights(rows []Position) {
	total := 0.0
	for _, r := range rows {
		if !math.IsNaN(r.MarketValue) && !math.IsInf(r.MarketValue, 0) {
			total += r.MarketValue
		}
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		for i := range rows {
			rows[i].Weight = 0
		}
		return
	}
	for i := range rows {
		rows[i].Weight = rows[i].MarketValue / total * 100
	}
}

// NormalizeQuotes converts a raw quotes payload (ticker -> OHLCV record in
// the market API's shape) into normalized quotes keyed by ticker.
func NormalizeQuotes(raw map[string]interface{}) map[string]Quote {
	out := make(map[string]Quote, len(raw))

	for ticker, v := range raw {
		q := asMap(v)
		if q == nil {
			// Envelope fields like "status" ride alongside ticker keys
			continue
		}
		open := ToNumber(q["Open"], math.NaN())
		close := ToNumber(q["Close"], math.NaN())

		quote := Quote{
			Ticker:   ticker,
			Price:    finiteOr(close, 0),
			Open:     finiteOr(open, 0),
			High:     ToNumber(q["High"], 0),
			Low:      ToNumber(q["Low"], 0),
			Volume:   ToNumber(q["Volume"], 0),
			Datetime: pickString(q, "Datetime"),
		}
		if !math.IsNaN(close) && !math.IsNaN(open) {
			quote.Change = close - open
			if open != 0 {
				quote.ChangePercent = (close - open) / open * 100
			}
		}
		out[ticker] = quote
	}

	return out
}

// quoteMaps re-expresses normalized quotes as loose maps so the position
// normalizer's key cascade can consume fetched quotes and payload-embedded
// quotes the same way.
func quoteMaps(quotes map[string]Quote) map[string]interface{} {
	out := make(map[string]interface{}, len(quotes))
	for ticker, q := range quotes {
		out[ticker] = map[string]interface{}{
			"price":         q.Price,
			"open":          q.Open,
			"changePercent": q.ChangePercent,
		}
	}
	return out
}

// tzSuffixRe matches timestamps that already carry a timezone marker
var tzSuffixRe = regexp.MustCompile(`[zZ]$|[+-]\d{2}:\d{2}$`)

// NormalizeTimestamp converts a raw timestamp to an unambiguous absolute
// instant. Numeric values below 1e12 are seconds, above are milliseconds.
// Bare strings are assumed UTC and suffixed with Z; strings that already
// carry a timezone pass through unchanged, so the function is idempotent.
func NormalizeTimestamp(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if t == "" || tzSuffixRe.MatchString(t) {
			return t
		}
		return t + "Z"
	case float64, float32, int, int64, uint64:
		n := ToNumber(t, math.NaN())
		if math.IsNaN(n) {
			return ""
		}
		ms := n
		if n < 1e12 {
			ms = n * 1000
		}
		return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02T15:04:05.000Z07:00")
	default:
		return fmt.Sprint(v)
	}
}

// NormalizeOrders converts a raw orders payload ({orders: [...]}) into
// normalized order rows. Side is derived solely from the quantity sign; the
// signed quantity is preserved.
func NormalizeOrders(payload map[string]interface{}) []Order {
	list, _ := payload["orders"].([]interface{})
	out := make([]Order, 0, len(list))

	for _, item := range list {
		row := asMap(item)
		if row == nil {
			continue
		}

		signed := ToNumber(row["quantity"], 0)
		side := "BUY"
		if signed < 0 {
			side = "SELL"
		}

		var ts interface{}
		for _, k := range []string{"timestamp", "created_at", "time"} {
			if v, ok := row[k]; ok && v != nil {
				ts = v
				break
			}
		}

		price := ToNumber(row["price"], 0)

		out = append(out, Order{
			OrderID:     pickString(row, "order_id", "id"),
			PortfolioID: pickString(row, "portfolio_id"),
			Ticker:      strings.ToUpper(pickString(row, "ticker")),
			CompanyName: pickString(row, "company_name", "name"),
			Sector:      pickString(row, "sector"),
			Side:        side,
			Quantity:    signed,
			AbsQuantity: math.Abs(signed),
			Price:       price,
			Cost:        math.Abs(signed) * price,
			Timestamp:   NormalizeTimestamp(ts),
			Raw:         row,
		})
	}

	return out
}

// NormalizePerformance zips the backend's parallel performance arrays
// (TIMESTAMP / pv:TOTAL / dv:TOTAL) into point records. The absolute change
// is derived between consecutive values; the change percentage carries the
// server-supplied daily value verbatim to preserve the backend's
// day-boundary convention.
func NormalizePerformance(payload map[string]interface{}) []PerformancePoint {
	perf := asMap(payload["performance"])
	if perf == nil {
		// Current backend serves the columnar keys at the top level
		perf = payload
	}
	if perf == nil {
		return []PerformancePoint{}
	}

	timestamps, _ := perf["TIMESTAMP"].([]interface{})
	values, _ := perf["pv:TOTAL"].([]interface{})
	dailyPct, _ := perf["dv:TOTAL"].([]interface{})

	points := make([]PerformancePoint, 0, len(timestamps))
	for i, rawTS := range timestamps {
		value := ToNumber(indexOrNil(values, i), 0)
		prev := value
		if i > 0 {
			prev = ToNumber(indexOrNil(values, i-1), value)
		}

		points = append(points, PerformancePoint{
			Timestamp:     NormalizeTimestamp(rawTS),
			Value:         value,
			Change:        value - prev,
			ChangePercent: ToNumber(indexOrNil(dailyPct, i), 0),
		})
	}

	return points
}

func indexOrNil(list []interface{}, i int) interface{} {
	if i < 0 || i >= len(list) {
		return nil
	}
	return list[i]
}

// CashValue extracts the cash sentinel balance from a portfolio detail
// payload (positions: {ticker: {quantity, value}}).
func CashValue(portfolio map[string]interface{}) float64 {
	positions := asMap(portfolio["positions"])
	if positions == nil {
		return 0
	}
	cash := asMap(positions[CashTicker])
	if cash == nil {
		return 0
	}
	// The cash row's value equals its quantity, so either field serves
	return PickNumber(cash, []string{"value", "market_value", "quantity"}, 0)
}

// TotalInvested sums the value of all non-cash positions in a portfolio
// detail payload.
func TotalInvested(portfolio map[string]interface{}) float64 {
	positions := asMap(portfolio["positions"])
	total := 0.0
	for ticker, v := range positions {
		if ticker == CashTicker {
			continue
		}
		p := asMap(v)
		total += PickNumber(p, []string{"value", "market_value"}, 0)
	}
	return total
}
