package pricesource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/util"
)

// AlphaVantage reads quotes and daily closes from the Alpha Vantage query
// API (GLOBAL_QUOTE and TIME_SERIES_DAILY).
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *util.RateLimiter
	retries int
	log     *slog.Logger
}

// AlphaVantageOptions configures an AlphaVantage source.
type AlphaVantageOptions struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	RateLimitPerMin int // 0 disables local limiting
	Retries         int // attempts per call, at least 1
	Logger          *slog.Logger
}

// NewAlphaVantage creates an Alpha Vantage source.
func NewAlphaVantage(opts AlphaVantageOptions) *AlphaVantage {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.alphavantage.co/query"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = util.Discard()
	}
	return &AlphaVantage{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: util.NewRateLimiter(opts.RateLimitPerMin, opts.RateLimitPerMin),
		retries: max(opts.Retries, 1),
		log:     opts.Logger.With("provider", "alphavantage"),
	}
}

// Name implements Source.
func (a *AlphaVantage) Name() string { return "alphavantage" }

// Quote implements Source using the GLOBAL_QUOTE endpoint.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	doc, err := a.query(ctx, "GLOBAL_QUOTE", symbol)
	if err != nil {
		return domain.Quote{}, err
	}

	v, err := jsonpath.Get(`$["Global Quote"]["05. price"]`, doc)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage %s: no price in response: %w", symbol, domain.ErrPriceUnavailable)
	}
	price, err := parsePrice(v)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage %s: %v: %w", symbol, err, domain.ErrPriceUnavailable)
	}
	return domain.Quote{
		Symbol: symbol,
		Price:  price,
		AsOf:   time.Now().UTC(),
		Source: a.Name(),
	}, nil
}

// History implements Source using the TIME_SERIES_DAILY endpoint. Entries are
// ordered by date descending and truncated to maxPoints.
func (a *AlphaVantage) History(ctx context.Context, symbol string, maxPoints int) ([]decimal.Decimal, error) {
	doc, err := a.query(ctx, "TIME_SERIES_DAILY", symbol)
	if err != nil {
		return nil, err
	}

	v, err := jsonpath.Get(`$["Time Series (Daily)"]`, doc)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: no time series in response: %w", symbol, domain.ErrPriceUnavailable)
	}
	series, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("alphavantage %s: time series is %T: %w", symbol, v, domain.ErrPriceUnavailable)
	}

	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	// ISO dates sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	closes := make([]decimal.Decimal, 0, min(len(dates), maxPoints))
	for _, d := range dates {
		if len(closes) == maxPoints {
			break
		}
		c, err := jsonpath.Get(`$["4. close"]`, series[d])
		if err != nil {
			a.log.Debug("skipping entry without close", "symbol", symbol, "date", d)
			continue
		}
		price, err := parsePrice(c)
		if err != nil {
			a.log.Debug("skipping malformed close", "symbol", symbol, "date", d, "error", err)
			continue
		}
		closes = append(closes, price)
	}
	return closes, nil
}

// query performs one API call and decodes the body. Rate limiting, both the
// local budget and the API's "Note"/"Information" bodies, is reported as
// ErrPriceUnavailable without retrying.
func (a *AlphaVantage) query(ctx context.Context, function, symbol string) (any, error) {
	if !a.limiter.TryAcquire() {
		return nil, fmt.Errorf("alphavantage %s: local rate limit reached: %w", symbol, domain.ErrPriceUnavailable)
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", a.apiKey)
	addr := a.baseURL + "?" + q.Encode()

	var doc map[string]any
	err := util.Retry(ctx, a.retries, 500*time.Millisecond, func() error {
		doc = nil
		return a.get(ctx, addr, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s %s: %v: %w", function, symbol, err, domain.ErrPriceUnavailable)
	}

	for _, key := range []string{"Note", "Information", "Error Message"} {
		if msg, ok := doc[key]; ok {
			return nil, fmt.Errorf("alphavantage %s %s: %s: %v: %w", function, symbol, key, msg, domain.ErrPriceUnavailable)
		}
	}
	return doc, nil
}

func (a *AlphaVantage) get(ctx context.Context, addr string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return util.Permanent(err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("status %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return util.Permanent(fmt.Errorf("status %s", resp.Status))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return util.Permanent(fmt.Errorf("decoding body: %w", err))
	}
	return nil
}

// parsePrice accepts the string-encoded numbers Alpha Vantage returns, and
// plain JSON numbers.
func parsePrice(v any) (decimal.Decimal, error) {
	var (
		p   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case string:
		p, err = decimal.NewFromString(x)
	case float64:
		p = decimal.NewFromFloat(x)
	default:
		return decimal.Zero, fmt.Errorf("unexpected price type %T", v)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %v: %w", v, err)
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", p)
	}
	return p, nil
}
