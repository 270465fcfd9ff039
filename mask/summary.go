package mask

import "github.com/montanaflynn/stats"

// Summary is a cheap coverage report for a computed mask.
type Summary struct {
	Cells    int     `json:"cells"`
	Inside   int     `json:"inside"`
	Missing  bool    `json:"missing"`
	Coverage float64 `json:"coverage"`

	// Row coverage distribution, useful for eyeballing whether a
	// region hugs one latitude band.
	RowCoverageMean   float64 `json:"rowCoverageMean"`
	RowCoverageMedian float64 `json:"rowCoverageMedian"`
	RowCoverageMax    float64 `json:"rowCoverageMax"`
}

// Summarize computes coverage statistics. A sentinel mask reports
// Missing=true and zeroed statistics.
func (m *Mask) Summarize() Summary {
	s := Summary{Cells: len(m.Values)}
	if m.IsSentinel() {
		s.Missing = true
		return s
	}
	rowCov := make([]float64, 0, m.Nlat)
	for r := 0; r < m.Nlat; r++ {
		in := 0
		for _, v := range m.Row(r) {
			if v == Inside {
				in++
			}
		}
		s.Inside += in
		if m.Nlon > 0 {
			rowCov = append(rowCov, float64(in)/float64(m.Nlon))
		}
	}
	if s.Cells > 0 {
		s.Coverage = float64(s.Inside) / float64(s.Cells)
	}
	if len(rowCov) > 0 {
		s.RowCoverageMean, _ = stats.Mean(rowCov)
		s.RowCoverageMedian, _ = stats.Median(rowCov)
		s.RowCoverageMax, _ = stats.Max(rowCov)
	}
	return s
}
