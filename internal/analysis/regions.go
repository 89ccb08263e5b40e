package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

// UnspecifiedRegion is the sentinel bucket for rows whose region value is
// null or blank. Such rows count toward totals instead of being dropped.
const UnspecifiedRegion = "unspecified"

// ErrColumnNotFound indicates a named aggregation column is absent.
var ErrColumnNotFound = errors.New("column not found in dataset")

// RegionalSummary aggregates one administrative region's records.
type RegionalSummary struct {
	Region        string         `json:"region"`
	TotalRecords  int            `json:"total_records"`
	ByLevel       map[string]int `json:"by_level,omitempty"`
	BySustainment map[string]int `json:"by_sustainment,omitempty"`
}

// AggregateByRegion groups a dataset by its region column and breaks each
// group down by educational level and sustainment type. levelColumn and
// sustainmentColumn may be empty to skip the respective breakdown; any
// non-empty column name that is absent fails with ErrColumnNotFound. The
// result is sorted descending by total records with alphabetical tie-break,
// so it is deterministic regardless of row order.
func AggregateByRegion(ds *dataset.Dataset, regionColumn, levelColumn, sustainmentColumn string) ([]RegionalSummary, error) {
	if _, ok := ds.Column(regionColumn); !ok {
		return nil, fmt.Errorf("%q: %w", regionColumn, ErrColumnNotFound)
	}
	if levelColumn != "" {
		if _, ok := ds.Column(levelColumn); !ok {
			return nil, fmt.Errorf("%q: %w", levelColumn, ErrColumnNotFound)
		}
	}
	if sustainmentColumn != "" {
		if _, ok := ds.Column(sustainmentColumn); !ok {
			return nil, fmt.Errorf("%q: %w", sustainmentColumn, ErrColumnNotFound)
		}
	}

	groups := make(map[string]*RegionalSummary)
	for _, row := range ds.Rows {
		region := row[regionColumn].String()
		if region == "" {
			region = UnspecifiedRegion
		}
		g, ok := groups[region]
		if !ok {
			g = &RegionalSummary{Region: region}
			if levelColumn != "" {
				g.ByLevel = make(map[string]int)
			}
			if sustainmentColumn != "" {
				g.BySustainment = make(map[string]int)
			}
			groups[region] = g
		}
		g.TotalRecords++

		if levelColumn != "" {
			if v := row[levelColumn]; !v.IsNull() {
				g.ByLevel[v.String()]++
			}
		}
		if sustainmentColumn != "" {
			if v := row[sustainmentColumn]; !v.IsNull() {
				g.BySustainment[v.String()]++
			}
		}
	}

	out := make([]RegionalSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRecords != out[j].TotalRecords {
			return out[i].TotalRecords > out[j].TotalRecords
		}
		return out[i].Region < out[j].Region
	})
	return out, nil
}
