package dashboard

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column describes one CSV export column. Hideable columns can be dropped by
// the caller to mirror whatever the view currently shows.
type Column struct {
	Key      string
	Label    string
	Hideable bool
}

// HoldingsColumns is the export column set for the holdings table
var HoldingsColumns = []Column{
	{Key: "ticker", Label: "Ticker"},
	{Key: "name", Label: "Name", Hideable: true},
	{Key: "sector", Label: "Sector", Hideable: true},
	{Key: "quantity", Label: "Quantity"},
	{Key: "avg_cost", Label: "Avg Cost"},
	{Key: "current_price", Label: "Price"},
	{Key: "market_value", Label: "Market Value"},
	{Key: "cost_basis", Label: "Cost Basis"},
	{Key: "pnl", Label: "P&L"},
	{Key: "pnl_percentage", Label: "P&L %"},
	{Key: "day_change_percentage", Label: "Day Change %", Hideable: true},
	{Key: "weight", Label: "Weight %", Hideable: true},
}

// OrdersColumns is the export column set for the orders table
var OrdersColumns = []Column{
	{Key: "timestamp", Label: "Timestamp"},
	{Key: "ticker", Label: "Ticker"},
	{Key: "company_name", Label: "Name", Hideable: true},
	{Key: "sector", Label: "Sector", Hideable: true},
	{Key: "side", Label: "Side"},
	{Key: "quantity", Label: "Quantity"},
	{Key: "price", Label: "Price"},
	{Key: "cost", Label: "Cost"},
}

// WriteCSV writes rows as UTF-8 CSV with a byte-order mark so spreadsheet
// applications detect the encoding. Hidden hideable columns are omitted;
// hiding a non-hideable column has no effect.
func WriteCSV(w io.Writer, columns []Column, hidden map[string]bool, rows []map[string]interface{}) error {
	visible := make([]Column, 0, len(columns))
	for _, c := range columns {
		if c.Hideable && hidden[c.Key] {
			continue
		}
		visible = append(visible, c)
	}

	var b strings.Builder
	b.WriteString("\uFEFF") // BOM for Excel

	for i, c := range visible {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvEscape(c.Label))
	}
	b.WriteByte('\n')

	for ri, row := range rows {
		for i, c := range visible {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvEscape(formatCell(row[c.Key])))
		}
		if ri < len(rows)-1 {
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// HoldingsRows converts normalized positions into export rows
func HoldingsRows(positions []Position) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, map[string]interface{}{
			"ticker":                p.Ticker,
			"name":                  p.Name,
			"sector":                p.Sector,
			"quantity":              p.Quantity,
			"avg_cost":              p.AvgCost,
			"current_price":         p.CurrentPrice,
			"market_value":          p.MarketValue,
			"cost_basis":            p.CostBasis,
			"pnl":                   p.PnL,
			"pnl_percentage":        p.PnLPercentage,
			"day_change_percentage": p.DayChangePercentage,
			"weight":                p.Weight,
		})
	}
	return rows
}

// OrdersRows converts normalized orders into export rows
func OrdersRows(orders []Order) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, map[string]interface{}{
			"timestamp":    o.Timestamp,
			"ticker":       o.Ticker,
			"company_name": o.CompanyName,
			"sector":       o.Sector,
			"side":         o.Side,
			"quantity":     o.Quantity,
			"price":        o.Price,
			"cost":         o.Cost,
		})
	}
	return rows
}

func csvEscape(s string) string {
	if !strings.ContainsAny(s, "\",\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatCell(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
