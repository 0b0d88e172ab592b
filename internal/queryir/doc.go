// Package queryir is the store-neutral description of a record fetch.
//
// A Query carries a filter, an ordering and a limit. Adapters compile it to
// their own dialect (internal/querysql for SQL stores) or evaluate it in
// memory (internal/store/memory). Keeping the filter as data means fatal
// fetch errors can name the exact filter that failed.
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case In:
//	case IsNull:
//	case And:
//	}
//
// VALUES:
//
// Literal values are limited to string, int, int64, bool and time.Time.
// Validate rejects anything else before a backend sees it.
package queryir
