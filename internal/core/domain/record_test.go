package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status domain.RecordStatus
		want   bool
	}{
		{"Concluído is valid", domain.StatusCompleted, true},
		{"Pendente is valid", domain.StatusPending, true},
		{"Cancelado is valid", domain.StatusCancelled, true},
		{"Em Andamento is valid", domain.StatusInProgress, true},
		{"empty is invalid", domain.RecordStatus(""), false},
		{"lowercase is invalid", domain.RecordStatus("concluído"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		name  string
		value string
		want  time.Time
		ok    bool
	}{
		{"iso naive", "2024-01-05T10:00:00", time.Date(2024, 1, 5, 10, 0, 0, 0, brt), true},
		{"iso with millis", "2024-01-31T23:59:59.999", time.Date(2024, 1, 31, 23, 59, 59, 999_000_000, brt), true},
		{"iso with offset", "2024-01-05T13:00:00Z", time.Date(2024, 1, 5, 10, 0, 0, 0, brt), true},
		{"iso minutes", "2024-01-05T10:00", time.Date(2024, 1, 5, 10, 0, 0, 0, brt), true},
		{"sql", "2024-01-05 10:00:00", time.Date(2024, 1, 5, 10, 0, 0, 0, brt), true},
		{"date only", "2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, brt), true},
		{"brazilian", "05/01/2024 10:00:00", time.Date(2024, 1, 5, 10, 0, 0, 0, brt), true},
		{"brazilian date", "05/01/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, brt), true},
		{"surrounding spaces", "  2024-01-05  ", time.Date(2024, 1, 5, 0, 0, 0, 0, brt), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "ontem", time.Time{}, false},
		{"impossible date", "2024-02-30", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.ParseTimestamp(tt.value, brt)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
				assert.Equal(t, brt, got.Location())
			}
		})
	}
}

func TestRecord_DurationMinutes(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		end    string
		want   int
		wantOK bool
	}{
		{"half hour", "09:00", "09:30", 30, true},
		{"across hours", "08:45", "10:15", 90, true},
		{"missing end", "09:00", "", 0, false},
		{"end before start", "10:00", "09:00", 0, false},
		{"same minute", "10:00", "10:00", 0, false},
		{"malformed", "9h", "10h", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.Record{StartTime: tt.start, EndTime: tt.end}
			got, ok := r.DurationMinutes()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_JSONFieldNames(t *testing.T) {
	r := domain.Record{
		Timestamp: "2024-01-05T10:00:00",
		Client:    "ACME",
		Employee:  "Ana",
		Status:    domain.StatusCompleted,
		Channel:   "Telefone",
	}

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "2024-01-05T10:00:00", fields["data_hora"])
	assert.Equal(t, "Concluído", fields["status_atendimento"])
	assert.Equal(t, "Telefone", fields["canal_atendimento"])
	assert.NotContains(t, fields, "start_time")
}
