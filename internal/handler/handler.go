// Package handler exposes the engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"vestquest-engine/internal/auth"
	"vestquest-engine/internal/calculations"
	"vestquest-engine/internal/engine"
	"vestquest-engine/internal/model"
)

// RateLookup answers GET /api/tax-rates.
type RateLookup interface {
	StateRates(ctx context.Context, states []string) map[string]decimal.Decimal
}

const requestTimeout = 30 * time.Second

type Handler struct {
	engine *engine.Engine
	rates  RateLookup
	auth   *auth.Authenticator
	log    *slog.Logger
}

// New wires the routes. With a nil authenticator the API is open and the
// export route is unavailable.
func New(e *engine.Engine, rates RateLookup, authn *auth.Authenticator, log *slog.Logger) *Handler {
	return &Handler{engine: e, rates: rates, auth: authn, log: log}
}

// singleRequest is the body of the one-calculation convenience routes: the
// portfolio fields of a batch request plus the calculation's properties.
type singleRequest struct {
	model.CalculationRequest
	Properties json.RawMessage `json:"properties,omitempty"`
}

var singleRoutes = map[string]string{
	"/api/vesting":          calculations.NameVestedShares,
	"/api/vesting/schedule": calculations.NameVestingSchedule,
	"/api/exercise-cost":    calculations.NameExerciseCost,
	"/api/tax":              calculations.NameTax,
	"/api/scenarios":        calculations.NameAggregateScenarios,
}

func (h *Handler) Handle() fasthttp.RequestHandler {
	api := h.route
	if h.auth != nil {
		api = h.auth.Middleware(api)
	}
	exp := h.exportRoute()
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		switch {
		case path == "/healthz":
			h.health(ctx)
		case path == "/api/export":
			exp(ctx)
		case strings.HasPrefix(path, "/api/"):
			api(ctx)
		default:
			writeError(ctx, fasthttp.StatusNotFound, "Not found: "+path)
		}
	}
}

func (h *Handler) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch path {
	case "/api/calculate":
		h.calculate(ctx)
	case "/api/tax-rates":
		h.taxRates(ctx)
	default:
		name, ok := singleRoutes[path]
		if !ok {
			writeError(ctx, fasthttp.StatusNotFound, "Not found: "+path)
			return
		}
		h.single(ctx, name)
	}
}

func (h *Handler) health(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) calculate(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}

	var req model.CalculationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.CalculationInstructions.Calculations) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one calculation is required")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	writeJSON(ctx, fasthttp.StatusOK, h.engine.Process(c, &req))
}

// single runs one calculation and answers with its bare result, or with the
// first critical message as a 422.
func (h *Handler) single(ctx *fasthttp.RequestCtx, name string) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}

	var body singleRequest
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req := body.CalculationRequest
	req.CalculationInstructions.Calculations = []model.Calculation{{
		CalculationID:   name,
		CalculationName: name,
		Properties:      body.Properties,
	}}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := h.engine.Process(c, &req)

	if msg, failed := firstCritical(resp); failed {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, msg.Code+": "+msg.Message)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(resp.CalculationResult.Calculations[0].Result)
}

func (h *Handler) taxRates(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}

	var states []string
	for _, s := range strings.Split(string(ctx.QueryArgs().Peek("states")), ",") {
		if s = strings.TrimSpace(s); s != "" {
			states = append(states, s)
		}
	}
	if len(states) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "Query parameter states is required")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	writeJSON(ctx, fasthttp.StatusOK, h.rates.StateRates(c, states))
}

func firstCritical(resp *model.CalculationResponse) (model.CalculationMessage, bool) {
	for _, m := range resp.CalculationResult.Messages {
		if m.Level == model.LevelCritical {
			return m, true
		}
	}
	return model.CalculationMessage{}, false
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to encode response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
