package domain

import "time"

// MaxHistogramEntries caps every per-facet histogram.
const MaxHistogramEntries = 10

// LastUpdatedLayout is the format of ultima_atualizacao.
const LastUpdatedLayout = time.RFC3339

// KPISet holds the record counts over a subset. Total == Completed + Pending always.
type KPISet struct {
	Total              int     `json:"total_registros"`
	Completed          int     `json:"total_concluidos"`
	Pending            int     `json:"total_pendentes"`
	CompletionRate     float64 `json:"taxa_conclusao"`
	AvgDurationMinutes float64 `json:"tempo_medio"`
}

// Histogram is a top-N distribution with parallel labels and values, values descending.
type Histogram struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// EmptyHistogram returns a histogram that serializes as empty arrays.
func EmptyHistogram() Histogram {
	return Histogram{Labels: []string{}, Values: []int{}}
}

// Charts maps each facet to its histogram.
type Charts map[FacetName]Histogram

// Dataset is the canonical dataset shape shared by the embedded snapshot and GET /api/data.
type Dataset struct {
	Records     []Record `json:"registros"`
	KPIs        KPISet   `json:"kpis"`
	Charts      Charts   `json:"graficos"`
	LastUpdated string   `json:"ultima_atualizacao"`
}

// EmptyDataset is the fallback when no source dataset is available.
func EmptyDataset(now time.Time) Dataset {
	charts := make(Charts, len(Facets))
	for _, f := range Facets {
		charts[f] = EmptyHistogram()
	}
	return Dataset{
		Records:     []Record{},
		Charts:      charts,
		LastUpdated: now.Format(LastUpdatedLayout),
	}
}

// FilteredResult is the output of one recomputation.
type FilteredResult struct {
	Records    []Record
	KPIs       KPISet
	Histograms Charts
}
