// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package anomaly scores deviation of interaction telemetry from an expected
// baseline. The detector consumes aggregated metrics windows, never discrete
// proctoring events, and reports inconclusive instead of a false low score
// when it has too few samples.
package anomaly

import "math"

// MinKeystrokes is the minimum number of inter-keystroke deltas across all
// samples before the detector considers its verdict conclusive.
const MinKeystrokes = 30

// MinSamples is the minimum number of telemetry windows required.
const MinSamples = 3

// maxScore caps the anomaly score on the violation weight scale, so the
// behavioral category stays comparable to discrete violation weights.
const maxScore = 50.0

type Sample struct {
	KeystrokeDeltasMs []float64
	InactivityGapsSec []float64
	PasteEvents       int
	AnswersSubmitted  int
	WindowSeconds     int
}

type Result struct {
	Score        float64
	Confidence   float64
	Conclusive   bool
	Contributing map[string]float64
	SampleCount  int
}

// Baseline is the expected interaction profile. The defaults are population
// statistics for supervised assessments.
type Baseline struct {
	KeystrokeMeanMs   float64
	KeystrokeStddevMs float64
	PastesPerMinute   float64
	InactivityMeanSec float64
	InactivityStdSec  float64
}

func DefaultBaseline() Baseline {
	return Baseline{
		KeystrokeMeanMs:   220,
		KeystrokeStddevMs: 140,
		PastesPerMinute:   0.2,
		InactivityMeanSec: 12,
		InactivityStdSec:  18,
	}
}

// welford maintains running mean and variance without keeping the series.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	diff := x - w.mean
	w.mean += diff / float64(w.n)
	w.m2 += diff * (x - w.mean)
}

func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n)
}

// Detect scores the full sample history of an attempt against the baseline.
// The result is deterministic for the same inputs.
func Detect(samples []Sample, baseline Baseline) Result {
	result := Result{
		Contributing: map[string]float64{},
		SampleCount:  len(samples),
	}

	var keystrokes welford
	totalPastes := 0
	totalWindowSec := 0
	totalAnswers := 0
	var gaps welford
	outlierGaps := 0

	for _, sample := range samples {
		for _, delta := range sample.KeystrokeDeltasMs {
			keystrokes.add(delta)
		}
		for _, gap := range sample.InactivityGapsSec {
			gaps.add(gap)
			if gap > baseline.InactivityMeanSec+3*baseline.InactivityStdSec {
				outlierGaps++
			}
		}
		totalPastes += sample.PasteEvents
		totalWindowSec += sample.WindowSeconds
		totalAnswers += sample.AnswersSubmitted
	}

	if len(samples) < MinSamples || keystrokes.n < MinKeystrokes {
		result.Conclusive = false
		return result
	}

	// cadence deviation: how far the observed mean inter-keystroke delta sits
	// from the baseline, in baseline standard deviations
	cadenceZ := 0.0
	if baseline.KeystrokeStddevMs > 0 {
		cadenceZ = math.Abs(keystrokes.mean-baseline.KeystrokeMeanMs) / baseline.KeystrokeStddevMs
	}
	// unnaturally uniform typing is its own signal: real typing has variance
	uniformity := 0.0
	if sd := math.Sqrt(keystrokes.variance()); sd < baseline.KeystrokeStddevMs/4 {
		uniformity = 1 - sd/(baseline.KeystrokeStddevMs/4)
	}

	pasteRate := 0.0
	if totalWindowSec > 0 {
		pasteRate = float64(totalPastes) / (float64(totalWindowSec) / 60.0)
	}
	pasteBurst := 0.0
	if baseline.PastesPerMinute > 0 && pasteRate > baseline.PastesPerMinute {
		pasteBurst = math.Min(pasteRate/baseline.PastesPerMinute-1, 4)
	}

	// long unexplained inactivity followed by submitted answers
	suspiciousIdle := 0.0
	if outlierGaps > 0 && totalAnswers > 0 {
		suspiciousIdle = math.Min(float64(outlierGaps), 4)
	}

	result.Contributing["keystroke_cadence_z"] = round2(cadenceZ)
	result.Contributing["keystroke_uniformity"] = round2(uniformity)
	result.Contributing["paste_burst"] = round2(pasteBurst)
	result.Contributing["inactivity_outliers"] = float64(outlierGaps)

	raw := 6*math.Min(cadenceZ, 4) + 10*uniformity + 8*pasteBurst + 5*suspiciousIdle
	result.Score = round2(math.Min(raw, maxScore))
	result.Confidence = round2(math.Min(float64(keystrokes.n)/(3*MinKeystrokes), 1))
	result.Conclusive = true
	return result
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
