// Package datenorm normalises the heterogeneous date encodings found in the
// appointment store.
//
// Upstream clients have written the same logical day as:
//
//	2025-12-20
//	2025-12-20T23:59:00-03:00
//	20/12/2025
//	20/12/25
//
// Two questions are answered here:
//
//   - MatchesDay: does a raw value fall on a given calendar day? Four
//     strategies are tried in fixed order and the first success wins:
//     the YYYY-MM-DD, DD/MM/YYYY and DD/MM/YY renderings as substrings,
//     then a full parse.
//   - CanonicalDay: which single day does a raw value refer to? Used for
//     counting, where one record must land on exactly one day.
//
// # Zones
//
// Timestamps carrying an offset are compared on the UTC day of the instant,
// so 2025-12-19T23:30:00-03:00 lands on 2025-12-20. The reference zone passed
// by callers only resolves values that carry no zone of their own. Plain
// dates and day-first strings are calendar days and are never shifted.
package datenorm
