// Architecture overview:
//   - ingest: loads the site definition, creates the schema, seeds brands and
//     aliases, then runs internal/pipeline. The crawl frontier walks listing
//     pages, a bounded worker pool parses product pages through the HTML or
//     JSON source adapter and resolves brands, and a single writer upserts each
//     product in its own transaction. Failures are isolated per product URL.
//     After all seeds the JSON snapshot is written to a local path or GCS.
//   - serve: internal/api exposes /v1/products, /v1/products/{id}, health
//     probes and /metrics over the same store.
//   - migrate: creates the Postgres schema.
//
// Configuration comes from an optional YAML file (--config) with CATALOG_*
// environment overrides (CATALOG_DB_DSN, CATALOG_EXPORT_PATH, ...). Logging is
// zap; metrics are Prometheus; product events go to Pub/Sub when
// pubsub.topic_name is set. SIGINT/SIGTERM cancel the running command.
package cmd
