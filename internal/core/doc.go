// Package core turns spreadsheet rows into JSON payloads and forwards them.
//
// This package is the heart of rowrelay, containing all domain logic
// independent of the HTTP envelope. It can be used by web handlers, CLI
// tools, or tests without modification.
//
// # Field mappings
//
// A [FieldMapping] is an ordered list of dotted output keys, each bound to
// a [FieldRule]:
//
//   - [ScalarRule] copies one column, optionally through a value map or a
//     parse type (int, boolean, date). Required rules fail the row when the
//     cell is blank.
//   - [GroupRule] lists which of several flag columns are filled in.
//
// Mappings arrive as JSON and are parsed once per batch with
// [ParseStructure], which rejects every malformed rule before any row runs.
//
// # Batch flow
//
//  1. [ResolveEndpoint] joins service and endpoint into the target URL
//  2. A [TableDecoder] turns the base64 spreadsheet into a [Table]
//  3. [ValidateSchema] checks every mapped column exists in the header
//  4. [BatchProcessor] builds, completes and sends one [Payload] per row
//
// Steps 1–3 fail the whole request. In step 4 a failing row is recorded in
// the [BatchResult] and the next row runs; nothing is retried.
//
// # Error Handling
//
// Batch-level errors are mapped to response status, message and support code
// by [ClassifyError]. Row-level errors are reported as text in the result.
package core
