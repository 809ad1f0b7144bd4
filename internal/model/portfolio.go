package model

import "cloud.google.com/go/civil"

// Portfolio is the read-only input every calculation in a request sees.
type Portfolio struct {
	TenantID  string
	AsOf      civil.Date
	Settings  TaxSettings
	Grants    []Grant
	Scenarios []Scenario
}

func (p *Portfolio) Grant(id string) (*Grant, bool) {
	for i := range p.Grants {
		if p.Grants[i].ID == id {
			return &p.Grants[i], true
		}
	}
	return nil, false
}
