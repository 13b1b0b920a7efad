/*
Package observability provides tools for monitoring a mazecode session.

It turns engine lifecycle hooks and editor results into Prometheus metrics,
structured log records, and an in-memory event trace.
*/
package observability
