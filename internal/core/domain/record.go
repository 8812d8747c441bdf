package domain

import (
	"strings"
	"time"
)

// RecordStatus is the lifecycle state of a service ticket.
type RecordStatus string

const (
	StatusCompleted  RecordStatus = "Concluído"
	StatusPending    RecordStatus = "Pendente"
	StatusCancelled  RecordStatus = "Cancelado"
	StatusInProgress RecordStatus = "Em Andamento"
)

// IsValid reports whether the status belongs to the known vocabulary.
func (s RecordStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusCancelled, StatusInProgress:
		return true
	}
	return false
}

// Record is one service ticket ("atendimento"). Records are immutable once ingested.
// Absent attributes are represented by the empty string.
type Record struct {
	Timestamp   string       `json:"data_hora"`
	Client      string       `json:"cliente"`
	Employee    string       `json:"funcionario"`
	Status      RecordStatus `json:"status_atendimento"`
	Type        string       `json:"tipo_atendimento"`
	System      string       `json:"sistema"`
	Channel     string       `json:"canal_atendimento"`
	Description string       `json:"descricao_atendimento"`
	Request     string       `json:"solicitacao_cliente,omitempty"`
	Requester   string       `json:"solicitante"`
	StartTime   string       `json:"start_time,omitempty"`
	EndTime     string       `json:"end_time,omitempty"`
}

// timestampLayouts are tried in order when parsing record timestamps and period bounds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseTimestamp parses a date-time in any of the layouts produced by the data sources.
// Values without an explicit offset are interpreted in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// DurationMinutes returns the minutes between StartTime and EndTime (HH:MM).
// ok is false when either clock is missing or malformed, or the end is not after the start.
func (r Record) DurationMinutes() (minutes int, ok bool) {
	start, okStart := parseClock(r.StartTime)
	end, okEnd := parseClock(r.EndTime)
	if !okStart || !okEnd || end <= start {
		return 0, false
	}
	return end - start, true
}

func parseClock(value string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
