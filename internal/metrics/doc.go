// Package metrics provides the observability hooks for latexd compilations.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers its collectors on
// a caller-supplied registry, which HTTPHandler then serves.
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	service := compiler.NewService(mgr, runner, settings, compiler.WithRecorder(recorder))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
