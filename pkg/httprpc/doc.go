// Package httprpc is a small client for form-encoded request/response APIs
// reached through a single endpoint URL, the style used by PHP-backed
// controllers where a form field selects the operation.
//
//	c, err := httprpc.New("https://api.example.com/controller.php",
//	    httprpc.WithMaxRetries(3),
//	    httprpc.WithCircuitBreaker(httprpc.NewCircuitBreaker(5, 1, 30*time.Second)),
//	)
//
//	var resp struct{ Data []string `json:"data"` }
//	err = c.Call(ctx, url.Values{"funcion": {"list"}}, &resp)
//
// Network errors, timeouts, 5xx responses and 408/425/429 are retried using the
// configured Backoff. Other 4xx responses fail immediately with
// ErrPermanentFailure. Exhausted retries return ErrRequestFailed wrapping the
// last error. While the breaker is open calls fail fast with ErrCircuitOpen.
package httprpc
