package portfolio

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AXAStudio/oscillo/internal/clients/yahoo"
	"github.com/AXAStudio/oscillo/internal/database"
	"github.com/AXAStudio/oscillo/internal/events"
)

type stubQuotes struct {
	quotes map[string]yahoo.MarketQuote
	calls  int
}

func (s *stubQuotes) GetQuotes(ctx context.Context, tickers []string) (map[string]yahoo.MarketQuote, error) {
	s.calls++
	out := make(map[string]yahoo.MarketQuote)
	for _, t := range tickers {
		if q, ok := s.quotes[t]; ok {
			out[t] = q
		}
	}
	return out, nil
}

type recordedDeposit struct {
	portfolioID string
	amount      float64
}

type stubSeeder struct {
	deposits []recordedDeposit
}

func (s *stubSeeder) SeedDeposit(portfolioID string, amount float64, timestamp string) error {
	s.deposits = append(s.deposits, recordedDeposit{portfolioID: portfolioID, amount: amount})
	return nil
}

func newTestService(t *testing.T, quotes *stubQuotes, seeder *stubSeeder) (*Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))

	log := zerolog.Nop()
	svc := NewService(
		NewRepository(db, log),
		NewPositionRepository(db, log),
		quotes,
		seeder,
		events.NewManager(log),
		log,
	)
	return svc, db
}

func TestCreate_SeedsCashAndDeposit(t *testing.T) {
	seeder := &stubSeeder{}
	svc, _ := newTestService(t, &stubQuotes{}, seeder)

	p, err := svc.Create(context.Background(), "u1", CreateRequest{
		Name:              "Growth",
		InitialInvestment: 10000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.UserID)

	positions, err := svc.Positions(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	require.Contains(t, positions, CashTicker)
	assert.Equal(t, 10000.0, positions[CashTicker].Quantity)

	require.Len(t, seeder.deposits, 1)
	assert.Equal(t, p.ID, seeder.deposits[0].portfolioID)
	assert.Equal(t, 10000.0, seeder.deposits[0].amount)
}

func TestCreate_ZeroInvestmentSkipsDeposit(t *testing.T) {
	seeder := &stubSeeder{}
	svc, _ := newTestService(t, &stubQuotes{}, seeder)

	p, err := svc.Create(context.Background(), "u1", CreateRequest{Name: "Empty"})
	require.NoError(t, err)
	assert.Empty(t, seeder.deposits)

	positions, err := svc.Positions(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Zero(t, positions[CashTicker].Quantity)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t, &stubQuotes{}, &stubSeeder{})

	_, err := svc.Create(context.Background(), "u1", CreateRequest{Name: "  "})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), "u1", CreateRequest{Name: "X", InitialInvestment: -1})
	assert.Error(t, err)
}

func TestGet_PresentValueFromQuotes(t *testing.T) {
	quotes := &stubQuotes{quotes: map[string]yahoo.MarketQuote{
		"AAPL": {Close: 165},
		"MSFT": {Close: 110},
	}}
	svc, _ := newTestService(t, quotes, &stubSeeder{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "u1", CreateRequest{Name: "Mixed", InitialInvestment: 5000})
	require.NoError(t, err)

	require.NoError(t, svc.positions.AdjustQuantity(p.ID, "AAPL", "Apple", "Technology", 10))
	require.NoError(t, svc.positions.AdjustQuantity(p.ID, "MSFT", "Microsoft", "Technology", 5))

	detail, err := svc.Get(ctx, "u1", p.ID)
	require.NoError(t, err)

	// 5000 cash + 10x165 + 5x110
	assert.Equal(t, 7200.0, detail.PresentValue)
	assert.Equal(t, 5000.0, detail.CashBalance)
	assert.Equal(t, 1650.0, detail.Positions["AAPL"].Value)
	assert.Equal(t, 5000.0, detail.Positions[CashTicker].Value)
}

func TestGet_UnquotedPositionExcludedFromValue(t *testing.T) {
	svc, _ := newTestService(t, &stubQuotes{}, &stubSeeder{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "u1", CreateRequest{Name: "Odd", InitialInvestment: 1000})
	require.NoError(t, err)
	require.NoError(t, svc.positions.AdjustQuantity(p.ID, "DELISTED", "", "", 100))

	detail, err := svc.Get(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, detail.PresentValue)
	assert.Zero(t, detail.Positions["DELISTED"].Value)
}

func TestGet_OwnershipMapsToNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubQuotes{}, &stubSeeder{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "u1", CreateRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "someone-else", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "u1", "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_CascadesPositions(t *testing.T) {
	svc, db := newTestService(t, &stubQuotes{}, &stubSeeder{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "u1", CreateRequest{Name: "Doomed", InitialInvestment: 100})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", p.ID))

	_, err = svc.Get(ctx, "u1", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM positions WHERE portfolio_id = ?", p.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestList_OnlyOwnPortfolios(t *testing.T) {
	svc, _ := newTestService(t, &stubQuotes{}, &stubSeeder{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", CreateRequest{Name: "Mine"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", CreateRequest{Name: "Theirs"})
	require.NoError(t, err)

	mine, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)
}
