/*
Package observability turns workspace lifecycle hooks into Prometheus metrics
and structured log lines.

Both are plain domain.LifecycleHooks values, so hosts combine them with their
own hooks through domain.MergeHooks.
*/
package observability
