package services

import "github.com/prometheus/client_golang/prometheus"

var (
	researchRuns      *prometheus.CounterVec
	copyGenerations   *prometheus.CounterVec
	contractAnalyses  *prometheus.CounterVec
	researchExports   *prometheus.CounterVec
	toolsPopulated    *prometheus.CounterVec
	newsletterSignups prometheus.Counter
)

func init() {
	researchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_runs_total",
			Help: "Research cycles per path, by outcome.",
		},
		[]string{"outcome"},
	)
	copyGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copy_generations_total",
			Help: "Generated blog drafts, by outcome.",
		},
		[]string{"outcome"},
	)
	contractAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_analyses_total",
			Help: "Affiliate contract analyses, by outcome.",
		},
		[]string{"outcome"},
	)
	researchExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_exports_total",
			Help: "Research exports, by format.",
		},
		[]string{"format"},
	)
	toolsPopulated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_tools_populated_total",
			Help: "Tools written to the catalog by the populator, new or reused.",
		},
		[]string{"kind"},
	)
	newsletterSignups = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_signups_total",
			Help: "Total number of newsletter signups.",
		},
	)
	prometheus.MustRegister(researchRuns, copyGenerations, contractAnalyses, researchExports, toolsPopulated, newsletterSignups)
}
