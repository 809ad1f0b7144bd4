package model

import (
	"cloud.google.com/go/civil"
	json "github.com/goccy/go-json"
)

type CalculationRequest struct {
	TenantID                string                  `json:"tenant_id"`
	AsOf                    civil.Date              `json:"as_of"`
	TaxSettings             TaxSettings             `json:"tax_settings"`
	Grants                  []Grant                 `json:"grants,omitempty"`
	GrantIDs                []string                `json:"grant_ids,omitempty"`
	Scenarios               []Scenario              `json:"scenarios,omitempty"`
	CalculationInstructions CalculationInstructions `json:"calculation_instructions"`
}

type CalculationInstructions struct {
	Calculations []Calculation `json:"calculations"`
}

type Calculation struct {
	CalculationID   string          `json:"calculation_id"`
	CalculationName string          `json:"calculation_name"`
	Properties      json.RawMessage `json:"properties,omitempty"`
}
