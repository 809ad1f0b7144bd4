// Package engine runs a batch of calculations against one portfolio.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/cache"
	"vestquest-engine/internal/calculations"
	"vestquest-engine/internal/model"
	"vestquest-engine/internal/store"
)

// RateSource resolves a state's income-tax rate.
type RateSource interface {
	StateRate(ctx context.Context, state string) decimal.Decimal
}

// Deps are the engine's collaborators. Only Registry is required; a nil
// Store, Cache or Rates disables that step. Responses that read anything from
// Store are never cached, so CacheTTL only bounds the life of self-contained
// requests.
type Deps struct {
	Registry *calculations.Registry
	Store    store.GrantStore
	Cache    cache.SummaryCache
	Rates    RateSource
	CacheTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

type Engine struct {
	registry *calculations.Registry
	store    store.GrantStore
	cache    cache.SummaryCache
	rates    RateSource
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func New(d Deps) *Engine {
	e := &Engine{
		registry: d.Registry,
		store:    d.Store,
		cache:    d.Cache,
		rates:    d.Rates,
		ttl:      d.CacheTTL,
		log:      d.Logger,
		now:      d.Now,
	}
	if e.registry == nil {
		e.registry = calculations.NewRegistry(nil)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *Engine) Registry() *calculations.Registry {
	return e.registry
}

// Process runs every calculation in req in order. Calculations are
// independent: a critical message in one does not stop the next, but it does
// make the overall outcome FAILURE.
func (e *Engine) Process(ctx context.Context, req *model.CalculationRequest) *model.CalculationResponse {
	start := e.now()

	if model.IsZeroDate(req.AsOf) {
		req.AsOf = civil.DateOf(start)
	}

	key := e.cacheKey(req)
	if resp, ok := e.cached(ctx, key); ok {
		e.stamp(resp, start)
		resp.CalculationMetadata.Cached = true
		e.log.Info("Calculation served from cache",
			"calculation_id", resp.CalculationMetadata.CalculationID,
			"tenant_id", req.TenantID)
		return resp
	}

	r := &run{}
	portfolio := e.portfolio(ctx, req, r)

	for _, c := range req.CalculationInstructions.Calculations {
		if err := ctx.Err(); err != nil {
			idx := r.add(model.CalculationMessage{
				Level:   model.LevelCritical,
				Code:    model.CodeCancelled,
				Message: fmt.Sprintf("Calculation cancelled: %v", err),
			})
			r.processed = append(r.processed, model.ProcessedCalculation{
				Calculation:               c,
				CalculationMessageIndexes: []int{idx},
			})
			break
		}
		r.processed = append(r.processed, e.calculate(portfolio, c, r))
	}

	outcome := model.OutcomeSuccess
	if r.failed {
		outcome = model.OutcomeFailure
	}
	if r.messages == nil {
		r.messages = []model.CalculationMessage{}
	}
	if r.processed == nil {
		r.processed = []model.ProcessedCalculation{}
	}

	resp := &model.CalculationResponse{
		CalculationMetadata: model.CalculationMetadata{
			TenantID:           req.TenantID,
			AsOf:               req.AsOf.String(),
			CalculationOutcome: outcome,
		},
		CalculationResult: model.CalculationResult{
			Messages:     r.messages,
			Calculations: r.processed,
		},
	}
	e.stamp(resp, start)

	e.log.Info("Calculation processed",
		"calculation_id", resp.CalculationMetadata.CalculationID,
		"tenant_id", req.TenantID,
		"calculations", len(r.processed),
		"outcome", outcome,
		"duration_ms", resp.CalculationMetadata.CalculationDurationMs)

	if outcome == model.OutcomeSuccess && !r.fromStore {
		e.remember(ctx, key, resp)
	}
	return resp
}

// run accumulates the messages of one Process call. Message ids are indexes
// into messages.
type run struct {
	messages  []model.CalculationMessage
	processed []model.ProcessedCalculation
	failed    bool
	// fromStore is set once the store was queried; its records can change
	// under an identical request body.
	fromStore bool
}

func (r *run) add(m model.CalculationMessage) int {
	m.ID = len(r.messages)
	r.messages = append(r.messages, m)
	if m.Level == model.LevelCritical {
		r.failed = true
	}
	return m.ID
}

func (e *Engine) calculate(p *model.Portfolio, c model.Calculation, r *run) model.ProcessedCalculation {
	pc := model.ProcessedCalculation{Calculation: c}

	handler, ok := e.registry.Get(c.CalculationName)
	if !ok {
		idx := r.add(model.CalculationMessage{
			Level:   model.LevelCritical,
			Code:    model.CodeUnknownCalculation,
			Message: fmt.Sprintf("Unknown calculation: %s", c.CalculationName),
		})
		pc.CalculationMessageIndexes = []int{idx}
		return pc
	}

	critical := false
	collect := func(msgs []model.CalculationMessage) {
		for _, m := range msgs {
			pc.CalculationMessageIndexes = append(pc.CalculationMessageIndexes, r.add(m))
			if m.Level == model.LevelCritical {
				critical = true
			}
		}
	}

	collect(handler.Validate(p, &c))
	if critical {
		return pc
	}

	result, msgs := handler.Apply(p, &c)
	collect(msgs)
	if critical || result == nil {
		return pc
	}

	raw, err := json.Marshal(result)
	if err != nil {
		collect([]model.CalculationMessage{{
			Level:   model.LevelCritical,
			Code:    model.CodeCalculationFailed,
			Message: fmt.Sprintf("Failed to encode result: %v", err),
		}})
		return pc
	}
	pc.Result = raw
	return pc
}

// portfolio assembles the calculation input: inline records first, then
// whatever the store has for ids the request named but did not include.
func (e *Engine) portfolio(ctx context.Context, req *model.CalculationRequest, r *run) *model.Portfolio {
	p := &model.Portfolio{
		TenantID:  req.TenantID,
		AsOf:      req.AsOf,
		Settings:  req.TaxSettings,
		Grants:    append([]model.Grant(nil), req.Grants...),
		Scenarios: append([]model.Scenario(nil), req.Scenarios...),
	}

	if e.store != nil {
		e.loadGrants(ctx, req, p, r)
		if len(p.Scenarios) == 0 && wantsScenarios(req) {
			r.fromStore = true
			scenarios, err := e.store.Scenarios(ctx, req.TenantID, nil)
			if err != nil {
				e.storeFailed(req.TenantID, "scenarios", err, r)
			} else {
				p.Scenarios = scenarios
			}
		}
	}

	if e.rates != nil && p.Settings.State != "" && !p.Settings.StateRate.Valid {
		p.Settings.StateRate = decimal.NewNullDecimal(e.rates.StateRate(ctx, p.Settings.State))
	}
	return p
}

func (e *Engine) loadGrants(ctx context.Context, req *model.CalculationRequest, p *model.Portfolio, r *run) {
	var missing []string
	for _, id := range req.GrantIDs {
		if _, ok := p.Grant(id); !ok {
			missing = append(missing, id)
		}
	}
	// Nothing inline and nothing named: the tenant's whole portfolio.
	loadAll := len(req.Grants) == 0 && len(req.GrantIDs) == 0
	if len(missing) == 0 && !loadAll {
		return
	}

	r.fromStore = true
	grants, err := e.store.Grants(ctx, req.TenantID, missing)
	if err != nil {
		e.storeFailed(req.TenantID, "grants", err, r)
		return
	}
	p.Grants = append(p.Grants, grants...)
}

func (e *Engine) storeFailed(tenantID, what string, err error, r *run) {
	e.log.Error("Store lookup failed", "tenant_id", tenantID, "records", what, "error", err)
	r.add(model.CalculationMessage{
		Level:   model.LevelWarning,
		Code:    model.CodeStoreUnavailable,
		Message: fmt.Sprintf("Could not load saved %s: %v", what, err),
	})
}

func wantsScenarios(req *model.CalculationRequest) bool {
	for _, c := range req.CalculationInstructions.Calculations {
		if c.CalculationName == calculations.NameAggregateScenarios {
			return true
		}
	}
	return false
}

func (e *Engine) stamp(resp *model.CalculationResponse, start time.Time) {
	end := e.now()
	elapsed := end.Sub(start)
	resp.CalculationMetadata.CalculationID = uuid.New().String()
	resp.CalculationMetadata.CalculationStartedAt = start.UTC().Format(time.RFC3339)
	resp.CalculationMetadata.CalculationCompletedAt = end.UTC().Format(time.RFC3339)
	resp.CalculationMetadata.CalculationDurationMs = elapsed.Milliseconds()
}

func (e *Engine) cacheKey(req *model.CalculationRequest) string {
	if e.cache == nil {
		return ""
	}
	body, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return cache.Key(req.TenantID, body)
}

func (e *Engine) cached(ctx context.Context, key string) (*model.CalculationResponse, bool) {
	if key == "" {
		return nil, false
	}
	data, ok := e.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var resp model.CalculationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		e.log.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	return &resp, true
}

func (e *Engine) remember(ctx context.Context, key string, resp *model.CalculationResponse) {
	if key == "" {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
		e.log.Warn("Failed to cache calculation", "key", key, "error", err)
	}
}
