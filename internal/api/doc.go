// Package api hosts the read-only HTTP surface over the catalog:
//   - GET /healthz and /readyz for probes (readyz pings the store).
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/products for a paged listing with brand and thumbnail.
//   - GET /v1/products/{id} for the full record with photos and sizes.
package api
