package testing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
)

// MockMovementRepository is an in-memory implementation of domain.MovementReader
type MockMovementRepository struct {
	mu        sync.RWMutex
	movements []domain.Movement
	err       error
}

// NewMockMovementRepository creates a new mock movement repository
func NewMockMovementRepository(movements ...domain.Movement) *MockMovementRepository {
	return &MockMovementRepository{movements: movements}
}

// SetMovements sets the movements to return
func (m *MockMovementRepository) SetMovements(movements []domain.Movement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = movements
}

// SetError sets the error to return
func (m *MockMovementRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FindAllMovements returns all movements
func (m *MockMovementRepository) FindAllMovements(ctx context.Context) ([]domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Movement, len(m.movements))
	copy(out, m.movements)
	return out, nil
}

type quoteKey struct {
	date         time.Time
	investmentID int64
	source       string
}

// MockQuoteStore is an in-memory implementation of domain.QuoteStore.
// Rows keep their insertion order; upserts on an existing key update in place.
type MockQuoteStore struct {
	mu      sync.RWMutex
	quotes  []domain.InvestmentPrice
	index   map[quoteKey]int
	findErr error
	saveErr error
	upserts int
}

// NewMockQuoteStore creates a new mock quote store seeded with quotes
func NewMockQuoteStore(quotes ...domain.InvestmentPrice) *MockQuoteStore {
	m := &MockQuoteStore{index: make(map[quoteKey]int)}
	for _, q := range quotes {
		_ = m.UpsertQuote(context.Background(), q)
	}
	m.upserts = 0
	return m
}

// SetFindError sets the error returned by FindQuotes
func (m *MockQuoteStore) SetFindError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findErr = err
}

// SetUpsertError sets the error returned by UpsertQuote
func (m *MockQuoteStore) SetUpsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// FindQuotes returns stored quotes matching the optional filters
func (m *MockQuoteStore) FindQuotes(ctx context.Context, investmentID *int64, start, end *time.Time) ([]domain.InvestmentPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.findErr != nil {
		return nil, m.findErr
	}

	out := make([]domain.InvestmentPrice, 0, len(m.quotes))
	for _, q := range m.quotes {
		if investmentID != nil && q.InvestmentID != *investmentID {
			continue
		}
		if start != nil && q.Date.Before(domain.Day(*start)) {
			continue
		}
		if end != nil && q.Date.After(domain.Day(*end)) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// UpsertQuote inserts or updates the quote keyed by (date, investment, source)
func (m *MockQuoteStore) UpsertQuote(ctx context.Context, price domain.InvestmentPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}

	price.Date = domain.Day(price.Date)
	key := quoteKey{date: price.Date, investmentID: price.InvestmentID, source: price.Source}
	if i, ok := m.index[key]; ok {
		m.quotes[i].Price = price.Price
	} else {
		m.index[key] = len(m.quotes)
		m.quotes = append(m.quotes, price)
	}
	m.upserts++
	return nil
}

// All returns every stored quote sorted by (investment, date, source)
func (m *MockQuoteStore) All() []domain.InvestmentPrice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.InvestmentPrice, len(m.quotes))
	copy(out, m.quotes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].InvestmentID != out[j].InvestmentID {
			return out[i].InvestmentID < out[j].InvestmentID
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// UpsertCount returns the number of successful UpsertQuote calls
func (m *MockQuoteStore) UpsertCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upserts
}

// MockInvestmentRepository is an in-memory implementation of domain.InvestmentReader
type MockInvestmentRepository struct {
	mu          sync.RWMutex
	investments []domain.Investment
	err         error
}

// NewMockInvestmentRepository creates a new mock investment repository
func NewMockInvestmentRepository(investments ...domain.Investment) *MockInvestmentRepository {
	return &MockInvestmentRepository{investments: investments}
}

// SetError sets the error to return
func (m *MockInvestmentRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FindAllInvestments returns all investments
func (m *MockInvestmentRepository) FindAllInvestments(ctx context.Context) ([]domain.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Investment, len(m.investments))
	copy(out, m.investments)
	return out, nil
}

// FindInvestmentByID returns the investment with id, or nil if absent
func (m *MockInvestmentRepository) FindInvestmentByID(ctx context.Context, id int64) (*domain.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.investments {
		if m.investments[i].ID == id {
			inv := m.investments[i]
			return &inv, nil
		}
	}
	return nil, nil
}

// MockSettingsRepository is an in-memory implementation of domain.SettingsReader
type MockSettingsRepository struct {
	mu           sync.RWMutex
	baseCurrency string
	err          error
}

// NewMockSettingsRepository creates a settings mock returning baseCurrency
func NewMockSettingsRepository(baseCurrency string) *MockSettingsRepository {
	return &MockSettingsRepository{baseCurrency: baseCurrency}
}

// SetError sets the error to return
func (m *MockSettingsRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetBaseCurrency returns the configured base currency or the default
func (m *MockSettingsRepository) GetBaseCurrency(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", m.err
	}
	if m.baseCurrency == "" {
		return string(domain.DefaultBaseCurrency), nil
	}
	return m.baseCurrency, nil
}

// MockQuoteProvider is a scripted domain.QuoteProvider
type MockQuoteProvider struct {
	mu     sync.RWMutex
	name   string
	quotes map[string][]domain.QuoteData
	err    error
	calls  int
}

// NewMockQuoteProvider creates a provider identified by name
func NewMockQuoteProvider(name string) *MockQuoteProvider {
	return &MockQuoteProvider{name: name, quotes: make(map[string][]domain.QuoteData)}
}

// SetQuotes sets the history returned for ticker
func (m *MockQuoteProvider) SetQuotes(ticker string, quotes []domain.QuoteData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[ticker] = quotes
}

// SetError sets the error to return
func (m *MockQuoteProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many fetches were made
func (m *MockQuoteProvider) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Name returns the provider identifier
func (m *MockQuoteProvider) Name() string {
	return m.name
}

// GetQuotes returns the scripted history for ticker
func (m *MockQuoteProvider) GetQuotes(ctx context.Context, ticker string) ([]domain.QuoteData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes[ticker], nil
}

// GetQuote returns the scripted quote on date, or the latest one when date is nil
func (m *MockQuoteProvider) GetQuote(ctx context.Context, ticker string, date *time.Time) (*domain.QuoteData, error) {
	quotes, err := m.GetQuotes(ctx, ticker)
	if err != nil || len(quotes) == 0 {
		return nil, err
	}
	if date == nil {
		q := quotes[len(quotes)-1]
		return &q, nil
	}
	day := domain.Day(*date)
	for _, q := range quotes {
		if domain.Day(q.Date).Equal(day) {
			return &q, nil
		}
	}
	return nil, nil
}

// MockCurrencyConverter converts with a fixed rate table keyed by "FROM/TO"
type MockCurrencyConverter struct {
	mu    sync.RWMutex
	rates map[string]float64
	err   error
	calls int
}

// NewMockCurrencyConverter creates a converter with the given rates
func NewMockCurrencyConverter(rates map[string]float64) *MockCurrencyConverter {
	if rates == nil {
		rates = make(map[string]float64)
	}
	return &MockCurrencyConverter{rates: rates}
}

// SetError sets the error to return for cross-currency conversions
func (m *MockCurrencyConverter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of cross-currency conversions requested
func (m *MockCurrencyConverter) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Convert multiplies amount by the FROM/TO rate; ok is false when no rate is set
func (m *MockCurrencyConverter) Convert(ctx context.Context, amount float64, from, to string, date time.Time) (float64, bool, error) {
	if from == to {
		return amount, true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, false, m.err
	}
	rate, ok := m.rates[from+"/"+to]
	if !ok {
		return 0, false, nil
	}
	return amount * rate, true, nil
}
