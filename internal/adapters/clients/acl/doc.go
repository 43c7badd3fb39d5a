// Package acl is the anti-corruption layer between the upstream quote APIs
// and the domain.
//
// Quote APIs disagree on shape. quotable.io answers {"results": [{"_id",
// "content", "author", "tags"}]}, dummyjson answers {"quotes": [{"id",
// "quote", "author"}]} and ZenQuotes answers a bare array of {"q", "a"}.
// This package accepts all of them and produces domain.Quote values, so no
// source-specific field name travels past it.
//
// [QuoteClient] is the only exported adapter. Upstream failures become
// domain errors in [MapHTTPError]:
//   - 404 Not Found → [domain.ErrNotFound]
//   - 400/422 → [domain.ErrValidation]
//   - 401/403 → [domain.ErrForbidden]
//   - 429, 5xx, transport → [domain.ErrUnavailable]
//
// Client-level errors ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded],
// [clients.ErrRateLimited]) are also reported as [domain.ErrUnavailable].
package acl
