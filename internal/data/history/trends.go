package history

import (
	"fmt"
	"math"
)

// BuildTrendReport summarizes the MSI of one pair across runs. Points must be
// ordered oldest first, as PairHistory returns them.
func BuildTrendReport(acceptor, donor string, points []TrendPoint) (TrendReport, error) {
	if len(points) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded for %s|%s", acceptor, donor)
	}

	out := make([]TrendPoint, len(points))
	copy(out, points)

	minMSI, maxMSI := math.Inf(1), math.Inf(-1)
	for i := range out {
		if i > 0 {
			out[i].DeltaMSI = round4(out[i].MSI - out[i-1].MSI)
		}
		minMSI = math.Min(minMSI, out[i].MSI)
		maxMSI = math.Max(maxMSI, out[i].MSI)
	}

	return TrendReport{
		Acceptor: acceptor,
		Donor:    donor,
		Since:    out[0].Timestamp,
		Until:    out[len(out)-1].Timestamp,
		RunCount: len(out),
		MinMSI:   minMSI,
		MaxMSI:   maxMSI,
		Points:   out,
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
