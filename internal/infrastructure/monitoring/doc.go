/*
Package monitoring provides Prometheus metrics for the bridge.

# Overview

Tracks HTTP requests, websocket link traffic, remote method call outcomes
and latencies, and live element/session counts.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "getSelectedRows")
	// ... perform the call ...
	timer.Stop("ok")

Metrics are exposed on /metrics via the standard promhttp handler.
*/
package monitoring
