// Package repositories implements SQL persistence for marks and students.
//
// Repositories run on SQLite or PostgreSQL through [shared.Database]; queries are
// written with "?" placeholders and rebound for the active dialect.
//
// Key Implementations:
//   - [MarkRepository] : mark entry upserts, unpublished and per-term lookups, and the
//     conditional publish commit
//   - [StudentRepository] : roster upserts and student resolution
//
// The publish commit flips only entries that are still unpublished, inside one
// transaction, so a result set is either fully committed or left untouched.
package repositories
