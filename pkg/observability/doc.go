/*
Package observability exposes Prometheus metrics for the cardflow editor.

Metrics are fed by the editor lifecycle hooks and by profile store notifications, and
are served by the HTTP adapter on /metrics.
*/
package observability
