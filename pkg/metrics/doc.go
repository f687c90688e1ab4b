// Package metrics defines the Prometheus collectors for webhook handling,
// reconciliation and access gate decisions.
//
// Collectors are registered on an explicit prometheus.Registerer rather than
// the global default registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.MustNew(reg)
//	router.Handle("/metrics", metrics.Handler(reg))
//
// All recording methods are safe to call on a nil *Metrics.
package metrics
