package handler

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"vestquest-engine/internal/auth"
	"vestquest-engine/internal/calculations"
	"vestquest-engine/internal/export"
	"vestquest-engine/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportRoute always requires a token, whether or not the rest of the API does.
func (h *Handler) exportRoute() fasthttp.RequestHandler {
	if h.auth == nil {
		return func(ctx *fasthttp.RequestCtx) {
			writeError(ctx, fasthttp.StatusUnauthorized, "Authentication is not configured")
		}
	}
	return h.auth.Middleware(auth.RequireTier(h.exportWorkbook, auth.TierPro, auth.TierEnterprise))
}

// exportWorkbook answers with a workbook of scenario summaries and the vesting
// schedule of every grant named in the request.
func (h *Handler) exportWorkbook(ctx *fasthttp.RequestCtx) {
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
	calcs := []model.Calculation{{
		CalculationID:   calculations.NameAggregateScenarios,
		CalculationName: calculations.NameAggregateScenarios,
		Properties:      body.Properties,
	}}
	for _, id := range grantIDs(&req) {
		props, _ := json.Marshal(map[string]string{"grant_id": id})
		calcs = append(calcs, model.Calculation{
			CalculationID:   id,
			CalculationName: calculations.NameVestingSchedule,
			Properties:      props,
		})
	}
	req.CalculationInstructions.Calculations = calcs

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := h.engine.Process(c, &req)
	processed := resp.CalculationResult.Calculations
	if len(processed) == 0 || processed[0].Result == nil {
		msg, _ := firstCritical(resp)
		writeError(ctx, fasthttp.StatusUnprocessableEntity, msg.Code+": "+msg.Message)
		return
	}

	var aggregate struct {
		Summaries []model.ScenarioSummary `json:"summaries"`
	}
	if err := json.Unmarshal(processed[0].Result, &aggregate); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to read scenario summaries")
		return
	}

	var schedules []export.Schedule
	for _, pc := range processed[1:] {
		if pc.Result == nil {
			continue
		}
		var s struct {
			GrantID string               `json:"grant_id"`
			Events  []model.VestingEvent `json:"events"`
		}
		if err := json.Unmarshal(pc.Result, &s); err == nil {
			schedules = append(schedules, export.Schedule{GrantID: s.GrantID, Events: s.Events})
		}
	}

	ctx.SetContentType(xlsxContentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="scenarios.xlsx"`)
	if err := export.WriteXLSX(ctx, aggregate.Summaries, schedules); err != nil {
		h.log.Error("Export failed", "subject", auth.Subject(ctx), "error", err)
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to build workbook")
		return
	}
	h.log.Info("Exported scenarios", "subject", auth.Subject(ctx), "scenarios", len(aggregate.Summaries))
}

func grantIDs(req *model.CalculationRequest) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, g := range req.Grants {
		if !seen[g.ID] {
			seen[g.ID] = true
			ids = append(ids, g.ID)
		}
	}
	for _, id := range req.GrantIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
