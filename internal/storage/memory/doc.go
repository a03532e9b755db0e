// Package memory provides in-process implementations of the catalog store and
// blob store, used for local runs (db.driver=memory) and tests.
package memory
