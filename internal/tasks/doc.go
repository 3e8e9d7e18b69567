// Package tasks publishes student results with real-time progress reporting.
//
// # Core Operations
//
// [Publisher] exposes three operations:
//
//  1. [Publisher.PublishBatch] : publish every unpublished result set
//     - Groups unpublished mark entries by student and term
//     - Classifies each set (orphaned, missing email, blocked)
//     - Grades, renders and dispatches the marksheet, then commits the set
//     - Returns a [models.BatchReport] in result key order
//
//  2. [Publisher.PublishOne] : publish one student's result set for a term
//     - Same steps as a batch, but each failure is a distinct error kind
//
//  3. [Publisher.StatusSummary] : read-only readiness of every result set
//     - Splits sets into drafts, published and errors with computed grades
//
// # Failure Isolation
//
// Each result set is processed on its own: render, dispatch or commit failures and
// panics become an ERROR report entry and the run continues. A set is committed only
// after its marksheet was dispatched, and the commit flips every entry of the set in
// one transaction or none.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// With [WithWorkers] above one, distinct result sets run on a worker pool (at most
// [MaxWorkers]). Report order does not depend on completion order.
//
// # Metrics
//
// A [Recorder] receives outcome counts and stage durations; [PrometheusRecorder]
// exposes them through its own registry.
package tasks
