package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pmr_atlas"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SectionEdits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "disease_edits_total", Help: "Accepted disease mutations by edit type."},
		[]string{"edit_type"},
	)
	EditConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "disease_edit_conflicts_total", Help: "Version compare-and-swap attempts lost to a concurrent writer."},
	)
	Translations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "translations_total", Help: "Translation provider calls by target language and outcome."},
		[]string{"language", "outcome"},
	)
	TranslationCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "translation_cache_total", Help: "Translation cache lookups by result."},
		[]string{"result"},
	)
	HistoryAppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "history_append_failures_total", Help: "History entries that could not be appended and were journaled."},
	)
	HistoryReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "history_reconciled_total", Help: "Journaled history entries appended by the reconciler."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SectionEdits)
	reg.MustRegister(EditConflicts)
	reg.MustRegister(Translations)
	reg.MustRegister(TranslationCache)
	reg.MustRegister(HistoryAppendFailures)
	reg.MustRegister(HistoryReconciled)
}
