package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute_SerializesFiltersOnly(t *testing.T) {
	state := domain.NewFilterState()
	state.Toggle(domain.FacetStatus, "Pendente")

	event := domain.Event{
		Type: domain.EventFilterChanged,
		Payload: domain.Recompute{
			Filters: state.Snapshot(),
			Dataset: domain.Dataset{Records: []domain.Record{{Client: "ACME"}}},
		},
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FILTER_CHANGE","payload":{"status":["Pendente"]}}`, string(raw))
}

func TestNewDashboardUpdate_NeverNilRecords(t *testing.T) {
	update := domain.NewDashboardUpdate(domain.FilteredResult{}, "2024-01-01T00:00:00Z")

	raw, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, `[]`, string(decoded["registros"]))
	assert.JSONEq(t, `"2024-01-01T00:00:00Z"`, string(decoded["ultima_atualizacao"]))
}
