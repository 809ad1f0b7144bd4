// Package store loads a tenant's saved grants and scenarios.
package store

import (
	"context"
	"sync"

	"vestquest-engine/internal/model"
)

// GrantStore returns records by tenant. An empty id or name list means all of
// them. Unknown ids are skipped rather than reported.
type GrantStore interface {
	Grants(ctx context.Context, tenantID string, ids []string) ([]model.Grant, error)
	Scenarios(ctx context.Context, tenantID string, names []string) ([]model.Scenario, error)
}

// MemoryStore keeps records in process. Used when no database is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	grants    map[string][]model.Grant
	scenarios map[string][]model.Scenario
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		grants:    make(map[string][]model.Grant),
		scenarios: make(map[string][]model.Scenario),
	}
}

// PutGrants replaces grants with the same id and appends the rest.
func (m *MemoryStore) PutGrants(tenantID string, grants ...model.Grant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.grants[tenantID]
	for _, g := range grants {
		replaced := false
		for i := range existing {
			if existing[i].ID == g.ID {
				existing[i] = g
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, g)
		}
	}
	m.grants[tenantID] = existing
}

func (m *MemoryStore) PutScenarios(tenantID string, scenarios ...model.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[tenantID] = append(m.scenarios[tenantID], scenarios...)
}

func (m *MemoryStore) Grants(ctx context.Context, tenantID string, ids []string) ([]model.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := set(ids)
	var out []model.Grant
	for _, g := range m.grants[tenantID] {
		if want == nil || want[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *MemoryStore) Scenarios(ctx context.Context, tenantID string, names []string) ([]model.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := set(names)
	var out []model.Scenario
	for _, s := range m.scenarios[tenantID] {
		if want == nil || want[s.Name] {
			s.GrantIDs = append([]string(nil), s.GrantIDs...)
			out = append(out, s)
		}
	}
	return out, nil
}

func set(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
