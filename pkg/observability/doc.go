/*
Package observability turns teamboard lifecycle hooks into Prometheus metrics
and structured log lines.

Hook sets are plain domain.LifecycleHooks values, so a host can combine
several of them:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
