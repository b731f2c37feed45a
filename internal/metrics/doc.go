// Package metrics declares the Prometheus metrics of hg and records them
// from service events. hg runs as a short-lived command, so the registry is
// exported through the node exporter textfile collector instead of an HTTP
// endpoint.
package metrics
