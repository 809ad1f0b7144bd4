package scenario

import (
	"strings"

	"cloud.google.com/go/civil"

	"vestquest-engine/internal/model"
)

// Filter narrows the grants a comparison looks at. Zero fields match everything.
type Filter struct {
	Company     string     `json:"company,omitempty"`
	GrantedFrom civil.Date `json:"granted_from"`
	GrantedTo   civil.Date `json:"granted_to"`
}

func (f Filter) Match(g *model.Grant) bool {
	if f.Company != "" && !strings.EqualFold(strings.TrimSpace(f.Company), strings.TrimSpace(g.Company)) {
		return false
	}
	granted := g.EffectiveGrantDate()
	if !model.IsZeroDate(f.GrantedFrom) && granted.Before(f.GrantedFrom) {
		return false
	}
	if !model.IsZeroDate(f.GrantedTo) && granted.After(f.GrantedTo) {
		return false
	}
	return true
}
