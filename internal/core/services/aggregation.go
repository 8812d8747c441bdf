package services

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
)

// ComputeKPIs counts a subset of records. Only StatusCompleted counts as completed;
// every other status, including unknown ones, counts as pending.
func ComputeKPIs(records []domain.Record) domain.KPISet {
	kpis := domain.KPISet{Total: len(records)}

	var minutes, timed int
	for _, r := range records {
		if r.Status == domain.StatusCompleted {
			kpis.Completed++
		}
		if d, ok := r.DurationMinutes(); ok {
			minutes += d
			timed++
		}
	}
	kpis.Pending = kpis.Total - kpis.Completed

	if kpis.Total > 0 {
		kpis.CompletionRate = roundTenth(float64(kpis.Completed) / float64(kpis.Total) * 100)
	}
	if timed > 0 {
		kpis.AvgDurationMinutes = roundTenth(float64(minutes) / float64(timed))
	}
	return kpis
}

// ComputeHistogram returns the top domain.MaxHistogramEntries values of a facet
// ordered by count descending. Equal counts keep the order in which the label
// first appeared in records. Empty values are reported as domain.NotInformed.
func ComputeHistogram(records []domain.Record, facet domain.FacetName) domain.Histogram {
	type bucket struct {
		label string
		count int
		first int
	}

	index := make(map[string]int)
	buckets := make([]bucket, 0)
	for _, r := range records {
		label := r.FacetValue(facet)
		if label == "" {
			label = domain.NotInformed
		}
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, bucket{label: label, first: i})
		}
		buckets[i].count++
	}

	slices.SortFunc(buckets, func(a, b bucket) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})

	if len(buckets) > domain.MaxHistogramEntries {
		buckets = buckets[:domain.MaxHistogramEntries]
	}

	h := domain.EmptyHistogram()
	for _, b := range buckets {
		h.Labels = append(h.Labels, b.label)
		h.Values = append(h.Values, b.count)
	}
	return h
}

// ComputeAll derives KPIs and one histogram per facet from the same subset.
func ComputeAll(records []domain.Record) domain.FilteredResult {
	charts := make(domain.Charts, len(domain.Facets))
	for _, f := range domain.Facets {
		charts[f] = ComputeHistogram(records, f)
	}
	return domain.FilteredResult{
		Records:    records,
		KPIs:       ComputeKPIs(records),
		Histograms: charts,
	}
}

// BuildDataset assembles the full-dataset payload served by GET /api/data.
func BuildDataset(records []domain.Record, now time.Time) domain.Dataset {
	if records == nil {
		records = []domain.Record{}
	}
	result := ComputeAll(records)
	return domain.Dataset{
		Records:     records,
		KPIs:        result.KPIs,
		Charts:      result.Histograms,
		LastUpdated: now.Format(domain.LastUpdatedLayout),
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
