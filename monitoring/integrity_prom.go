// Copyright 2025 VeriSkill GmbH
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ViolationEventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_violation_events_ingested_total",
	Help: "The total number of accepted violation events, by violation type",
}, []string{"type"})

var ViolationEventsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_violation_events_deduplicated_total",
	Help: "The total number of violation events acknowledged as duplicates",
})

var ViolationEventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_violation_events_rejected_total",
	Help: "The total number of violation events retained unscored, by reason",
}, []string{"reason"})

var DisqualificationDecisionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_disqualification_decisions_created_total",
	Help: "The total number of disqualification candidates raised, by triggering rule",
}, []string{"rule"})

var ReviewResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_review_resolutions_total",
	Help: "The total number of review-workflow resolutions, by outcome",
}, []string{"outcome"})

var ReviewConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_review_conflicts_total",
	Help: "The total number of review resolutions lost to a concurrent winner",
})

var PlagiarismAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "integrity_plagiarism_analysis_duration_seconds",
	Help:    "Duration of a single plagiarism analysis in seconds",
	Buckets: prometheus.DefBuckets,
})

var PlagiarismAnalysesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_plagiarism_analyses_completed_total",
	Help: "The total number of finished plagiarism analyses, by state",
}, []string{"state"})

var AnomalyRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "integrity_anomaly_recompute_duration_seconds",
	Help:    "Duration of one anomaly recomputation pass in seconds",
	Buckets: prometheus.DefBuckets,
})

var AnomalyResultsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_anomaly_results_computed_total",
	Help: "The total number of anomaly results computed, by conclusiveness",
}, []string{"conclusive"})
