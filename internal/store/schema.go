package store

import _ "embed"

// Schema is the DDL for the Postgres store, applied out of band in
// deployments and directly in integration tests.
//
//go:embed schema.sql
var Schema string
