package analysis

import (
	"sort"

	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

// TopValueLimit bounds the most-frequent values reported for text columns.
const TopValueLimit = 5

// ValueCount pairs a rendered cell value with its occurrence count.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile holds per-column statistics, recomputed on demand and never
// cached in the registry.
type ColumnProfile struct {
	Column        string       `json:"column"`
	Type          dataset.Type `json:"type"`
	NullCount     int          `json:"null_count"`
	NullPct       float64      `json:"null_pct"`
	DistinctCount int          `json:"distinct_count"`
	Min           any          `json:"min,omitempty"`
	Max           any          `json:"max,omitempty"`
	TopValues     []ValueCount `json:"top_values,omitempty"`
}

// Profile computes one ColumnProfile per column in source order. Numeric and
// date columns report min/max over non-null values; text and boolean columns
// report the most frequent values with ties broken by first-seen order.
// Zero-row datasets profile without error.
func Profile(ds *dataset.Dataset) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, ds.ColumnCount())
	for _, col := range ds.Columns {
		profiles = append(profiles, profileColumn(ds, col))
	}
	return profiles
}

func profileColumn(ds *dataset.Dataset, col dataset.Column) ColumnProfile {
	p := ColumnProfile{Column: col.Name, Type: col.Type}

	counts := make(map[string]int)
	var firstSeen []string
	var minVal, maxVal dataset.Value
	seenExtreme := false

	for _, row := range ds.Rows {
		v := row[col.Name]
		if v.IsNull() {
			p.NullCount++
			continue
		}
		key := v.String()
		if _, ok := counts[key]; !ok {
			firstSeen = append(firstSeen, key)
		}
		counts[key]++

		if !seenExtreme {
			minVal, maxVal = v, v
			seenExtreme = true
			continue
		}
		if less(v, minVal) {
			minVal = v
		}
		if less(maxVal, v) {
			maxVal = v
		}
	}
	p.DistinctCount = len(counts)
	if n := ds.RowCount(); n > 0 {
		p.NullPct = float64(int(float64(p.NullCount)/float64(n)*10000+0.5)) / 100
	}

	switch col.Type {
	case dataset.TypeInteger, dataset.TypeReal, dataset.TypeDate:
		if seenExtreme {
			p.Min = minVal.Scalar()
			p.Max = maxVal.Scalar()
		}
	default:
		p.TopValues = topValues(counts, firstSeen, TopValueLimit)
	}
	return p
}

// less orders two non-null values of the same column. Numeric and date kinds
// compare naturally; everything else falls back to lexical order.
func less(a, b dataset.Value) bool {
	switch {
	case a.Kind == dataset.TypeInteger && b.Kind == dataset.TypeInteger:
		return a.Int < b.Int
	case isNumeric(a) && isNumeric(b):
		return numeric(a) < numeric(b)
	case a.Kind == dataset.TypeDate && b.Kind == dataset.TypeDate:
		return a.Date.Before(b.Date)
	}
	return a.String() < b.String()
}

func isNumeric(v dataset.Value) bool {
	return v.Kind == dataset.TypeInteger || v.Kind == dataset.TypeReal
}

func numeric(v dataset.Value) float64 {
	if v.Kind == dataset.TypeInteger {
		return float64(v.Int)
	}
	return v.Real
}

// topValues returns up to limit most frequent values, ties resolved by
// first-seen order.
func topValues(counts map[string]int, firstSeen []string, limit int) []ValueCount {
	rank := make(map[string]int, len(firstSeen))
	for i, v := range firstSeen {
		rank[v] = i
	}
	out := make([]ValueCount, 0, len(firstSeen))
	for _, v := range firstSeen {
		out = append(out, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return rank[out[i].Value] < rank[out[j].Value]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
