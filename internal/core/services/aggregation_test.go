package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeKPIs(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.Record
		want domain.KPISet
	}{
		{
			name: "empty",
			in:   nil,
			want: domain.KPISet{},
		},
		{
			name: "only Concluído counts as completed",
			in: []domain.Record{
				{Status: domain.StatusCompleted},
				{Status: domain.StatusPending},
				{Status: domain.StatusCancelled},
				{Status: "concluído"},
				{Status: ""},
			},
			want: domain.KPISet{Total: 5, Completed: 1, Pending: 4, CompletionRate: 20},
		},
		{
			name: "average duration ignores records without a valid interval",
			in: []domain.Record{
				{Status: domain.StatusCompleted, StartTime: "09:00", EndTime: "09:30"},
				{Status: domain.StatusCompleted, StartTime: "10:00", EndTime: "10:45"},
				{Status: domain.StatusPending, StartTime: "11:00", EndTime: "10:00"},
				{Status: domain.StatusPending},
			},
			want: domain.KPISet{Total: 4, Completed: 2, Pending: 2, CompletionRate: 50, AvgDurationMinutes: 37.5},
		},
		{
			name: "completion rate rounds to one decimal",
			in: []domain.Record{
				{Status: domain.StatusCompleted},
				{Status: domain.StatusPending},
				{Status: domain.StatusPending},
			},
			want: domain.KPISet{Total: 3, Completed: 1, Pending: 2, CompletionRate: 33.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.ComputeKPIs(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Completed+got.Pending)
		})
	}
}

func TestComputeHistogram_OrderAndTies(t *testing.T) {
	records := []domain.Record{
		{System: "ERP"},
		{System: "CRM"},
		{System: "CRM"},
		{System: "Portal"},
		{System: "ERP"},
		{System: "Fiscal"},
	}

	h := services.ComputeHistogram(records, domain.FacetSystem)

	assert.Equal(t, []string{"ERP", "CRM", "Portal", "Fiscal"}, h.Labels)
	assert.Equal(t, []int{2, 2, 1, 1}, h.Values)
}

func TestComputeHistogram_MissingValues(t *testing.T) {
	records := []domain.Record{
		{Channel: ""},
		{Channel: "Telefone"},
		{},
		{Channel: domain.NotInformed},
	}

	h := services.ComputeHistogram(records, domain.FacetChannel)

	// Absent, empty and literal "Não informado" share one bucket.
	assert.Equal(t, []string{domain.NotInformed, "Telefone"}, h.Labels)
	assert.Equal(t, []int{3, 1}, h.Values)
}

func TestComputeHistogram_TruncatesToTopTen(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 15; i++ {
		for n := 0; n <= i%4; n++ {
			records = append(records, domain.Record{Client: fmt.Sprintf("cliente-%02d", i)})
		}
	}

	h := services.ComputeHistogram(records, domain.FacetClient)

	require.Len(t, h.Labels, domain.MaxHistogramEntries)
	require.Len(t, h.Values, domain.MaxHistogramEntries)
	assert.IsNonIncreasing(t, h.Values)

	sum := 0
	for _, v := range h.Values {
		sum += v
	}
	assert.LessOrEqual(t, sum, len(records))
	// Count 4 first, in order of appearance.
	assert.Equal(t, []string{"cliente-03", "cliente-07", "cliente-11"}, h.Labels[:3])
}

func TestComputeHistogram_Empty(t *testing.T) {
	h := services.ComputeHistogram(nil, domain.FacetStatus)

	assert.NotNil(t, h.Labels)
	assert.NotNil(t, h.Values)
	assert.Empty(t, h.Labels)
}

func TestComputeAll_CoversEveryFacet(t *testing.T) {
	result := services.ComputeAll(scenarioRecords())

	assert.Len(t, result.Histograms, len(domain.Facets))
	for _, f := range domain.Facets {
		_, ok := result.Histograms[f]
		assert.True(t, ok, "missing histogram for %s", f)
	}
	assert.Equal(t, 3, result.KPIs.Total)
}

func TestBuildDataset(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

	ds := services.BuildDataset(nil, now)

	assert.NotNil(t, ds.Records)
	assert.Equal(t, "2024-03-04T05:06:07Z", ds.LastUpdated)
	assert.Len(t, ds.Charts, len(domain.Facets))
}
