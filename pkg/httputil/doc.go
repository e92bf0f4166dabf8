// Package httputil provides the HTTP plumbing shared by the compute backend
// client and the OSRM street router.
//
// # Client
//
// [Client] sends requests with default headers, reports them to the
// observability HTTP hooks, and classifies failures:
//
//   - transport errors and 5xx responses → [RetryableError] wrapping [ErrNetwork]
//   - 404 → [ErrNotFound]
//   - other non-2xx → [*StatusError]
//
// [Client.Cached] stores raw response bodies in a [cache.Cache] under a
// namespace, so the same code path serves file, Redis and disabled caches.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError],
// doubling the delay between attempts:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    _, err := client.Do(ctx, http.MethodGet, url, nil)
//	    return err
//	})
package httputil
