package metrics

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
)

// OutlierMethod selects the outlier detection policy. Selection is explicit:
// an unrecognized method is a configuration error, caught before any rule
// runs, never a silent fallback.
type OutlierMethod string

const (
	MethodIQR    OutlierMethod = "iqr"
	MethodZScore OutlierMethod = "zscore"
)

// ParseOutlierMethod validates a configured method string.
func ParseOutlierMethod(s string) (OutlierMethod, error) {
	switch OutlierMethod(s) {
	case MethodIQR, MethodZScore:
		return OutlierMethod(s), nil
	default:
		return "", fmt.Errorf("unknown outlier method %q (want %q or %q)", s, MethodIQR, MethodZScore)
	}
}

const (
	iqrMultiplier   = 1.5
	zScoreThreshold = 3.0
)

// DetectOutliers flags outlying values in series under the given method and
// returns a mask aligned 1:1 with the input. IQR flags values outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR]; zscore flags |z| > 3 using the population
// standard deviation, substituting 1.0 when the deviation is zero. Degenerate
// series produce an all-false mask, never an error.
func DetectOutliers(series []float64, method OutlierMethod) []bool {
	mask := make([]bool, len(series))
	if len(series) == 0 {
		return mask
	}

	switch method {
	case MethodZScore:
		mean, err := mstats.Mean(series)
		if err != nil {
			return mask
		}
		std, err := mstats.StandardDeviationPopulation(series)
		if err != nil || std <= 0 {
			std = 1.0
		}
		for i, v := range series {
			if math.Abs((v-mean)/std) > zScoreThreshold {
				mask[i] = true
			}
		}
	default: // iqr
		quartiles, err := mstats.Quartile(series)
		if err != nil {
			return mask
		}
		iqr := quartiles.Q3 - quartiles.Q1
		lower := quartiles.Q1 - iqrMultiplier*iqr
		upper := quartiles.Q3 + iqrMultiplier*iqr
		for i, v := range series {
			if v < lower || v > upper {
				mask[i] = true
			}
		}
	}
	return mask
}

// AnyOutlier reports whether the mask flags at least one value.
func AnyOutlier(mask []bool) bool {
	for _, flagged := range mask {
		if flagged {
			return true
		}
	}
	return false
}
