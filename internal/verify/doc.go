// Package verify counts appointments per calendar day over a window and
// cross-checks the counts with a second, independent method.
//
// The primary method assigns each record to exactly one day with
// datenorm.CanonicalDay, or, when no parser understands the text, to the
// first window day whose literal rendering it contains. The cross-check counts, for each day, the records
// whose raw date text contains one of that day's literal renderings
// (YYYY-MM-DD, DD/MM/YYYY, DD/MM/YY). Parsing alone has under-counted
// ambiguous local formats in the past; substring matching alone over-counts
// near midnight. Where the two disagree the affected records are reported
// as warnings, never silently resolved.
//
// Records that no strategy can place are listed under Unparseable and left
// out of every count.
package verify
