// Package devtools serves an HTTP inspector for a running reactive graph.
//
// Routes:
//
//	GET /healthz   liveness probe
//	GET /metrics   Prometheus exposition of the given gatherer
//	GET /snapshot  current state of the graph as JSON
//	GET /events    websocket stream of core events
//
// The Hub behind /events implements observer.Hooks, so installing it
// streams every observer creation, notification and warning to connected
// clients:
//
//	srv := devtools.New(devtools.Options{Address: "localhost:7070"})
//	observer.SetHooks(observer.MultiHooks(collector, srv.Hub()))
//	go srv.ListenAndServe(ctx)
package devtools
