// Package rateregistry looks up state income-tax rates from an external
// registry service, falling back to the local tax table.
package rateregistry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"vestquest-engine/internal/taxtable"
)

const defaultTimeout = 2 * time.Second

type stateResponse struct {
	State string          `json:"state"`
	Rate  decimal.Decimal `json:"rate"`
}

type Registry struct {
	url     string
	table   *taxtable.Table
	client  *fasthttp.Client
	timeout time.Duration
	cache   sync.Map
	log     *slog.Logger
}

// New returns a Registry for url. With an empty url every lookup is answered
// from table.
func New(url string, table *taxtable.Table, log *slog.Logger) *Registry {
	if table == nil {
		table = taxtable.Default()
	}
	r := &Registry{
		url:     strings.TrimRight(url, "/"),
		table:   table,
		timeout: defaultTimeout,
		log:     log,
	}
	if r.url != "" {
		r.client = &fasthttp.Client{
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
		}
	}
	return r
}

// StateRate returns the rate for one state code.
func (r *Registry) StateRate(ctx context.Context, state string) decimal.Decimal {
	state = strings.ToUpper(strings.TrimSpace(state))
	if r.url == "" || state == "" {
		return r.tableRate(state)
	}
	if rate, ok := r.cache.Load(state); ok {
		return rate.(decimal.Decimal)
	}

	rate, err := r.fetch(ctx, state)
	if err != nil {
		r.log.Warn("Tax rate registry lookup failed, using table rate", "state", state, "error", err)
		return r.tableRate(state)
	}
	r.cache.Store(state, rate)
	return rate
}

// StateRates looks up several states, fetching uncached ones concurrently.
func (r *Registry) StateRates(ctx context.Context, states []string) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(states))
	if len(states) == 1 {
		result[strings.ToUpper(states[0])] = r.StateRate(ctx, states[0])
		return result
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, s := range states {
		wg.Add(1)
		go func(state string) {
			defer wg.Done()
			rate := r.StateRate(ctx, state)
			mu.Lock()
			result[strings.ToUpper(strings.TrimSpace(state))] = rate
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	return result
}

func (r *Registry) fetch(ctx context.Context, state string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.url + "/states/" + state)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = r.client.DoDeadline(req, resp, deadline)
	} else {
		err = r.client.DoTimeout(req, resp, r.timeout)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return decimal.Zero, fmt.Errorf("registry returned status %d", resp.StatusCode())
	}

	var sr stateResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return decimal.Zero, fmt.Errorf("decode registry response: %w", err)
	}
	if sr.Rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("registry returned negative rate %s", sr.Rate)
	}
	return sr.Rate, nil
}

// tableRate treats states missing from the table as having no income tax.
func (r *Registry) tableRate(state string) decimal.Decimal {
	rate, _ := r.table.StateRate(state)
	return rate
}
