// Package models defines the domain entities of the result publication pipeline.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: rows owned by the mark and student stores
//   - [MarkEntry] : one subject's marks for one student in one term
//   - [StudentSnapshot] : the roster fields the pipeline reads (name, email, block state)
//
// 2. Derived Values: built per run and never persisted
//   - [ResultKey] : structured (student, term) grouping key
//   - [ResultSet] : every [MarkEntry] sharing a [ResultKey]
//   - [BatchReport] and [BatchReportEntry] : the auditable outcome of a publication run
//   - [PublishOutcome] : the outcome of publishing a single result set
//
// Persistent entities implement [Model] and validate with go-playground/validator struct tags.
package models
