// Package api hosts the HTTP server and middleware for clip uploads. Routes:
//   - POST /, /upload and /upload/ accept a multipart snapshot and an optional
//     url field, run the pipeline and answer with the snapshot and note links.
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
package api
