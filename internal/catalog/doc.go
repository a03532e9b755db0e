// Package catalog holds the shared domain types and interfaces of the
// ingestion pipeline: parsed product records, brand and alias seeds, the
// persisted catalog projections, and the collaborator contracts (fetching,
// parsing, storage, blob export, event publishing) that the concrete
// packages under internal/ implement.
package catalog
