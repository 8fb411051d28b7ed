// Package server exposes the catalog over HTTP as a JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it on top of
// go-chi/chi, and returns JSON bodies for unknown routes and methods.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// # Handler Interface
//
// Handlers implement [Handler] and mount their own routes, which keeps route definitions next to the code
// that serves them. [AssetHandler] serves /assets and [HealthHandler] serves /healthz.
//
// # Responses
//
// Successful responses are wrapped as {"data": ..., "meta": {"request_id": ...}} and failures as
// {"error": {"code", "message"}, "meta": ...}. Sentinel errors map to status codes:
//
//	shared.Err*NotFound                404
//	shared.ErrInvalidArgument/Input    400
//	shared.ErrVariantMismatch          409
//	shared.ErrUnknownVariant           422
//	anything else                      500 (logged, generic message)
//
// # Middleware
//
// [RequestID], [AccessLog] and [Recover] run on every request. [RateLimiter] applies a token bucket per
// client address and answers 429 with Retry-After when the bucket is empty.
package server
