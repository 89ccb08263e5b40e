package analysis

import (
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

// SchoolsColumns names the education-specific columns detected in a roster
// dataset. Empty fields mean the column was not found.
type SchoolsColumns struct {
	Region      string `json:"region,omitempty"`
	Level       string `json:"level,omitempty"`
	Enrollment  string `json:"enrollment,omitempty"`
	Sustainment string `json:"sustainment,omitempty"`
}

// DetectSchoolsColumns finds the municipality, educational level, enrollment,
// and sustainment columns by case-insensitive substring match. The Spanish
// names match the SEP centros-de-trabajo exports this server was built for.
func DetectSchoolsColumns(ds *dataset.Dataset) SchoolsColumns {
	var c SchoolsColumns
	if name, ok := ds.FindColumn("municipio", "municipality"); ok {
		c.Region = name
	}
	if name, ok := ds.FindColumn("nivel", "level"); ok {
		c.Level = name
	}
	if name, ok := ds.FindColumn("matrícula", "matricula", "enrollment"); ok {
		c.Enrollment = name
	}
	if name, ok := ds.FindColumn("sostenimiento", "sustainment"); ok {
		c.Sustainment = name
	}
	return c
}

// SchoolsStats are the automatic breakdowns returned alongside a schools
// dataset load.
type SchoolsStats struct {
	Levels          map[string]int `json:"educational_levels,omitempty"`
	TopRegions      []ValueCount   `json:"top_municipalities,omitempty"`
	Sustainment     map[string]int `json:"sustainment,omitempty"`
	TotalEnrollment *int64         `json:"total_enrollment,omitempty"`
}

// AutoStats computes the automatic analysis for a schools dataset using the
// detected columns. Breakdowns for undetected columns are omitted; a
// non-numeric enrollment column omits the total rather than guessing.
func AutoStats(ds *dataset.Dataset, cols SchoolsColumns) SchoolsStats {
	var stats SchoolsStats
	if cols.Level != "" {
		stats.Levels = valueCounts(ds, cols.Level)
	}
	if cols.Region != "" {
		stats.TopRegions = topValues(valueCounts(ds, cols.Region), firstSeenOrder(ds, cols.Region), 10)
	}
	if cols.Sustainment != "" {
		stats.Sustainment = valueCounts(ds, cols.Sustainment)
	}
	if cols.Enrollment != "" {
		if col, ok := ds.Column(cols.Enrollment); ok && (col.Type == dataset.TypeInteger || col.Type == dataset.TypeReal) {
			var total int64
			for _, row := range ds.Rows {
				v := row[cols.Enrollment]
				if v.IsNull() {
					continue
				}
				if v.Kind == dataset.TypeInteger {
					total += v.Int
				} else {
					total += int64(v.Real)
				}
			}
			stats.TotalEnrollment = &total
		}
	}
	return stats
}

func valueCounts(ds *dataset.Dataset, column string) map[string]int {
	counts := make(map[string]int)
	for _, row := range ds.Rows {
		if v := row[column]; !v.IsNull() {
			counts[v.String()]++
		}
	}
	return counts
}

func firstSeenOrder(ds *dataset.Dataset, column string) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, row := range ds.Rows {
		v := row[column]
		if v.IsNull() {
			continue
		}
		key := v.String()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			order = append(order, key)
		}
	}
	return order
}
