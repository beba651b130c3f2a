// Package metrics exposes Prometheus instrumentation for research runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for a research run.
type Metrics struct {
	SearchesTotal     prometheus.Counter // Web searches issued
	ScrapesTotal      prometheus.Counter // Company websites scraped
	FDALookupsTotal   prometheus.Counter // openFDA queries issued
	SavesTotal        prometheus.Counter // Company records saved
	ContactsTotal     prometheus.Counter // Contacts discovered
	LLMRequestsTotal  prometheus.Counter // Completion API requests
	LLMInputTokens    prometheus.Counter // Tokens sent to the completion API
	LLMOutputTokens   prometheus.Counter // Tokens produced by the completion API
	SessionErrorTotal prometheus.Counter // Sessions ended in an error state
}

// New creates run metrics registered against reg. The runID label lets
// scrapes from consecutive runs be told apart.
func New(reg prometheus.Registerer, runID string) *Metrics {
	labels := prometheus.Labels{"run": runID}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		reg.MustRegister(c)
		return c
	}

	return &Metrics{
		SearchesTotal:     counter("scout_searches_total", "Web searches issued"),
		ScrapesTotal:      counter("scout_scrapes_total", "Company websites scraped"),
		FDALookupsTotal:   counter("scout_fda_lookups_total", "openFDA queries issued"),
		SavesTotal:        counter("scout_saves_total", "Company records saved"),
		ContactsTotal:     counter("scout_contacts_total", "Contacts discovered"),
		LLMRequestsTotal:  counter("scout_llm_requests_total", "Completion API requests"),
		LLMInputTokens:    counter("scout_llm_input_tokens_total", "Input tokens consumed"),
		LLMOutputTokens:   counter("scout_llm_output_tokens_total", "Output tokens produced"),
		SessionErrorTotal: counter("scout_session_errors_total", "Sessions ended in error state"),
	}
}

// Serve starts a metrics listener on addr in a background goroutine and
// returns the server so the caller can shut it down.
func Serve(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
