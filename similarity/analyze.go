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

package similarity

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// AnalyzerVersion is persisted with every report. Bump it whenever weights,
// thresholds or the tokenizer change, so historical reports stay explainable.
const AnalyzerVersion = "v1"

type Config struct {
	ShingleSize        int
	TopK               int
	SimilarityFloor    float64
	FlagThreshold      float64
	WeightLexical      float64
	WeightStructural   float64
	WeightTemporal     float64
	SeverityMediumFrom float64
	SeverityHighFrom   float64

	// ExpectedSolveSeconds is the difficulty baseline for the problem;
	// TemporalWindow is the co-submission window that raises suspicion.
	ExpectedSolveSeconds float64
	TemporalWindow       time.Duration
}

func DefaultConfig() Config {
	return Config{
		ShingleSize:          5,
		TopK:                 10,
		SimilarityFloor:      0.30,
		FlagThreshold:        0.72,
		WeightLexical:        0.45,
		WeightStructural:     0.35,
		WeightTemporal:       0.20,
		SeverityMediumFrom:   0.82,
		SeverityHighFrom:     0.92,
		ExpectedSolveSeconds: 1800,
		TemporalWindow:       30 * time.Minute,
	}
}

// Document is one submission as the analyzer sees it, either the analysis
// target or a corpus member.
type Document struct {
	SubmissionID         uuid.UUID
	StudentID            uuid.UUID
	SourceText           string
	SubmittedAt          time.Time
	SolveDurationSeconds int64
}

type Match struct {
	SubmissionID uuid.UUID
	Score        float64
}

type Report struct {
	Lexical    float64
	Structural float64
	Temporal   float64
	Overall    float64
	Flagged    bool
	Severity   *dtos.PlagiarismSeverity
	Matches    []Match
}

// Analyze compares a submission against the corpus of prior submissions for
// the same problem. The target itself is never compared against its own id.
func Analyze(target Document, corpus []Document, cfg Config) Report {
	targetTokens := Tokenize(target.SourceText)
	targetShingles := Shingles(targetTokens, cfg.ShingleSize)
	targetSkeleton := Skeleton(targetTokens)

	var report Report
	var bestLexicalMatch *Document
	matches := make([]Match, 0, len(corpus))

	for i := range corpus {
		member := corpus[i]
		if member.SubmissionID == target.SubmissionID {
			continue
		}

		memberTokens := Tokenize(member.SourceText)
		lexical := Jaccard(targetShingles, Shingles(memberTokens, cfg.ShingleSize))
		structural := LCSRatio(targetSkeleton, Skeleton(memberTokens))

		if lexical > report.Lexical {
			report.Lexical = lexical
			bestLexicalMatch = &corpus[i]
		}
		if structural > report.Structural {
			report.Structural = structural
		}

		pairScore := math.Max(lexical, structural)
		if pairScore >= cfg.SimilarityFloor {
			matches = append(matches, Match{SubmissionID: member.SubmissionID, Score: round4(pairScore)})
		}
	}

	report.Temporal = temporalSuspicion(target, bestLexicalMatch, report.Lexical, cfg)
	report.Lexical = round4(report.Lexical)
	report.Structural = round4(report.Structural)
	report.Overall = round4(cfg.WeightLexical*report.Lexical +
		cfg.WeightStructural*report.Structural +
		cfg.WeightTemporal*report.Temporal)
	report.Flagged = report.Overall >= cfg.FlagThreshold
	if report.Flagged {
		severity := severityBand(report.Overall, cfg)
		report.Severity = &severity
	}

	// deterministic order: score descending, id ascending on ties
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].SubmissionID.String() < matches[j].SubmissionID.String()
	})
	if len(matches) > cfg.TopK {
		matches = matches[:cfg.TopK]
	}
	report.Matches = matches
	return report
}

// temporalSuspicion combines an implausibly fast solve relative to the
// problem difficulty baseline with near-simultaneous submission of highly
// similar code by a different student.
func temporalSuspicion(target Document, bestMatch *Document, bestLexical float64, cfg Config) float64 {
	suspicion := 0.0

	if cfg.ExpectedSolveSeconds > 0 && target.SolveDurationSeconds > 0 {
		ratio := float64(target.SolveDurationSeconds) / cfg.ExpectedSolveSeconds
		if ratio < 0.25 {
			suspicion += (0.25 - ratio) / 0.25 * 0.6
		}
	}

	if bestMatch != nil && bestLexical >= 0.7 && bestMatch.StudentID != target.StudentID {
		gap := target.SubmittedAt.Sub(bestMatch.SubmittedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap <= cfg.TemporalWindow {
			suspicion += 0.4 * (1 - gap.Seconds()/cfg.TemporalWindow.Seconds())
		}
	}

	return round4(math.Min(suspicion, 1))
}

func severityBand(overall float64, cfg Config) dtos.PlagiarismSeverity {
	switch {
	case overall >= cfg.SeverityHighFrom:
		return dtos.PlagiarismSeverityHigh
	case overall >= cfg.SeverityMediumFrom:
		return dtos.PlagiarismSeverityMedium
	default:
		return dtos.PlagiarismSeverityLow
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
