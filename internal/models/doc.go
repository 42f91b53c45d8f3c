// Package models defines domain entities and persistence interfaces for the library-to-playlist pipeline.
//
// The package contains two categories of types:
//
// 1. Run bookkeeping: database-backed records of completed pipeline runs
//   - [ScanRun] : One row per scan/retry/import/duplicates run with final counters
//   - [RunTotals] : The counter block a run summary reports
//
// 2. Persistence interfaces shared by all repositories
//   - [Model] : ID, timestamps, validation
//   - [Repository] : Generic CRUD over any [Model]
//
// Run records are write-only bookkeeping for the history command. The match
// pipeline never reads them back, and nothing about a past run influences a
// later one.
package models
