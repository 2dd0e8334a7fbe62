// Package metrics exports Prometheus metrics for the reactivity core.
//
// A Collector implements observer.Hooks. Install it once at startup:
//
//	reg := prometheus.NewRegistry()
//	c := metrics.New(metrics.WithRegistry(reg))
//	observer.SetHooks(c)
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected (namespace "observer" by default):
//   - observers_created_total: Observers attached, by kind (object, array)
//   - notifications_total: Dep notifications
//   - notify_subscribers: Histogram of subscribers per notification
//   - notify_duration_seconds: Histogram of fan-out duration
//   - warnings_total: Reported diagnostics, by code
package metrics
