// Package httputil provides HTTP helpers shared by pixelshare clients.
//
// [Retry] wraps a request with retries for transient failures. Callers
// mark an error as transient by wrapping it in [RetryableError]; typical
// candidates are network errors and 5xx responses. Anything else is returned
// at once:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// [RetryWithBackoff] applies the defaults: 3 attempts starting at one second
// and doubling after each failure.
package httputil
