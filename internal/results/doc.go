// Package results turns raw mark entries into publishable result sets.
//
// [Group] buckets entries by (student, term), [Classify] decides whether a set can be
// published, and [Calculate] summarizes its marks under the best-of-5 rule. Everything
// here is pure: no I/O, no input mutation.
package results
