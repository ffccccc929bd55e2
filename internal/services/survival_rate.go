package services

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type PlantCounts struct {
	Live     int
	Dead     int
	Existing int
}

// ComputeSurvivalRate returns live plants as a percentage of the baseline
// plant count (density × area), rounded half up. It returns nil when there is
// no baseline density or the baseline count is not positive. Dead and
// existing plants do not affect the ratio.
func ComputeSurvivalRate(counts PlantCounts, densityPerHa *decimal.Decimal, areaHa decimal.Decimal) *int {
	if densityPerHa == nil {
		return nil
	}
	return survivalPercent(counts.Live, densityPerHa.Mul(areaHa))
}

func survivalPercent(live int, baselinePlants decimal.Decimal) *int {
	if !baselinePlants.IsPositive() {
		return nil
	}
	rate := decimal.NewFromInt(int64(live)).Mul(hundred).Div(baselinePlants)
	return roundedPercent(rate)
}

// mortalityPercent is dead plants over all non-existing plants.
func mortalityPercent(live, dead int) *int {
	total := live + dead
	if total <= 0 {
		return nil
	}
	rate := decimal.NewFromInt(int64(dead)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
	return roundedPercent(rate)
}

func roundedPercent(rate decimal.Decimal) *int {
	v := int(rate.Round(0).IntPart())
	return &v
}

// plantingDensity is live plants per hectare, rounded.
func plantingDensity(live int, areaHa decimal.Decimal) int {
	if !areaHa.IsPositive() {
		return 0
	}
	return int(decimal.NewFromInt(int64(live)).Div(areaHa).Round(0).IntPart())
}

// standardDeviation is the sample standard deviation, or nil with fewer than
// two samples.
func standardDeviation(samples []int) *int {
	if len(samples) <= 1 {
		return nil
	}

	n := float64(len(samples))
	mean := 0.0
	for _, s := range samples {
		mean += float64(s)
	}
	mean /= n

	sumSquares := 0.0
	for _, s := range samples {
		d := float64(s) - mean
		sumSquares += d * d
	}

	v := int(math.Round(math.Sqrt(sumSquares / (n - 1))))
	return &v
}

type weightedSample struct {
	value  int
	weight float64
}

// weightedStandardDeviation treats each weight as a sample count so Bessel's
// correction uses the total weight. One sample has no spread; no weight means
// no answer.
func weightedStandardDeviation(samples []weightedSample) *int {
	if len(samples) == 0 {
		return nil
	}
	if len(samples) == 1 {
		zero := 0
		return &zero
	}

	totalWeight := 0.0
	for _, s := range samples {
		totalWeight += s.weight
	}
	if totalWeight <= 0 {
		return nil
	}

	mean := 0.0
	for _, s := range samples {
		mean += float64(s.value) * s.weight
	}
	mean /= totalWeight

	sumSquares := 0.0
	for _, s := range samples {
		d := float64(s.value) - mean
		sumSquares += d * d * s.weight
	}

	if totalWeight <= 1 {
		zero := 0
		return &zero
	}

	v := int(math.Round(math.Sqrt(sumSquares / (totalWeight - 1))))
	return &v
}
