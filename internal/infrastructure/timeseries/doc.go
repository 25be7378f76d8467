// Package timeseries is the optional InfluxDB mirror for ingested
// samples and alert events. Nothing in the ingest path depends on it
// being reachable — PersistenceBatcher's SQLite writes are authoritative,
// this is a best-effort archive on top.
package timeseries
