// Package odour owns the odour observation clustering pipeline.
//
// Responsibilities: column selection and validation of an uploaded sheet,
// feature standardization, seeded k-means partitioning, per-group summary
// statistics and the fixed group color palette.
// Key types: Table, Record, Dataset, Assignment, Summary, Result.
//
// Every invocation owns its data. Nothing in this package keeps state
// between calls, so concurrent runs for different uploads are safe.
//
// Dependency rule: no HTTP, rendering or file decoding in this package.
// Those collaborators live in internal/api, internal/render and
// internal/sheet.
package odour
