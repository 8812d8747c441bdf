package domain

import "encoding/json"

// EventType defines the channel an event is published on.
type EventType string

const (
	// EventFilterChanged is published whenever FilterState changes.
	EventFilterChanged EventType = "FILTER_CHANGE"
	// EventDatasetReplaced is published when the canonical dataset is swapped.
	EventDatasetReplaced EventType = "DATASET_REPLACED"
	// EventDatasetUpdated is published after every recomputation.
	EventDatasetUpdated EventType = "DASHBOARD_UPDATE"
)

// Event is the unit dispatched by the event bus and sent over WebSocket.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Recompute carries the inputs of one recomputation as they were when the event was
// published. On the wire only the filters are sent (filterChange payload).
type Recompute struct {
	Filters FilterSnapshot
	Dataset Dataset
}

func (r Recompute) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Filters)
}

// DashboardUpdate is the datasetUpdated payload.
type DashboardUpdate struct {
	KPIs        KPISet   `json:"kpis"`
	Charts      Charts   `json:"graficos"`
	Records     []Record `json:"registros"`
	LastUpdated string   `json:"ultima_atualizacao"`
}

// NewDashboardUpdate builds the datasetUpdated payload from a result.
func NewDashboardUpdate(result FilteredResult, lastUpdated string) DashboardUpdate {
	records := result.Records
	if records == nil {
		records = []Record{}
	}
	return DashboardUpdate{
		KPIs:        result.KPIs,
		Charts:      result.Histograms,
		Records:     records,
		LastUpdated: lastUpdated,
	}
}
