package rdap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// getJSON performs a GET with conditional-GET caching, retry/backoff on
// transient failures, and maps the response onto the §7 error taxonomy.
func (c *Client) getJSON(ctx context.Context, u string) (map[string]any, http.Header, error) {
	// negative cache hit: replay the original §7 error without re-requesting
	if negErr, ok := c.respCache.Negative(u); ok {
		return nil, nil, negErr
	}

	// strong cache hit (fresh TTL)
	if body, ok := c.respCache.Get(u); ok {
		var m map[string]any
		if err := json.Unmarshal(body, &m); err == nil {
			return m, nil, nil
		}
	}

	useValidators := true     // send ETag/Last-Modified initially
	didUnconditional := false // ensure we only try once without validators

	for attempt := 1; ; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.baseTimeout)
		reqCtx = withRedirectContentTypeTracking(reqCtx)

		req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
		req.Header.Set("Accept", "application/rdap+json, application/json;q=0.9")
		req.Header.Set("User-Agent", c.ua)
		copyHeaders(req.Header, c.headerExtra)

		if useValidators {
			if meta, ok := c.respCache.Meta(u); ok {
				if meta.ETag != "" {
					req.Header.Set("If-None-Match", meta.ETag)
				}
				if !meta.LastModified.IsZero() {
					req.Header.Set("If-Modified-Since", meta.LastModified.Format(http.TimeFormat))
				}
			}
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			cancel()
			if ctx.Err() != nil {
				return nil, nil, newErr("getJSON", classifyCtxErr(ctx), ctx.Err())
			}
			if attempt <= c.maxRetries && isRetryableNetErr(err) {
				select {
				case <-time.After(c.backoff(attempt)):
					continue
				case <-ctx.Done():
					return nil, nil, newErr("getJSON", classifyCtxErr(ctx), ctx.Err())
				}
			}
			return nil, nil, err
		}

		switch resp.StatusCode {
		case http.StatusNotModified:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			cancel()

			if body := c.respCache.FreshBody(u); body != nil {
				var m map[string]any
				if json.Unmarshal(body, &m) == nil {
					c.respCache.UpdateFreshness(u, resp.Header)
					return m, resp.Header, nil
				}
			}

			// No cached body: drop validators once and retry unconditionally.
			if !didUnconditional {
				didUnconditional = true
				useValidators = false
				continue
			}
			return nil, nil, fmt.Errorf("rdap GET %s: 304 but no cached body", u)

		case http.StatusOK:
			if !acceptableContentType(resp.Header.Get("Content-Type")) {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				cancel()
				return nil, nil, newErr("getJSON", BadResponseType, fmt.Errorf("unexpected content-type %q from %s", resp.Header.Get("Content-Type"), u))
			}
			b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			resp.Body.Close()
			cancel()
			if err != nil {
				return nil, nil, err
			}
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				return nil, nil, newErr("getJSON", DecodeError, err)
			}
			c.respCache.Store(u, b, resp.Header)
			return m, resp.Header, nil

		case http.StatusTooManyRequests:
			// §4.5: honor Retry-After for advisory purposes, never auto-retry.
			// Unlike the capped retryAfter used for the internal backoff wait
			// below, the advisory value surfaced to the caller is never clamped.
			retry := parseRetryAfterAdvisory(resp.Header)
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
			resp.Body.Close()
			cancel()
			return nil, nil, &Error{Op: "getJSON", Kind: RateLimited, HTTPStatus: http.StatusTooManyRequests, RetryAfter: retry, Err: remoteErrorObjectOrNil(b)}

		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError:
			wait := retryAfter(resp.Header, c.backoff(attempt))
			if attempt <= c.maxRetries {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				cancel()
				select {
				case <-time.After(wait):
					continue
				case <-ctx.Done():
					return nil, nil, newErr("getJSON", classifyCtxErr(ctx), ctx.Err())
				}
			}
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
			resp.Body.Close()
			cancel()
			if errObj := parseErrorObject(b); errObj != nil {
				return nil, nil, &Error{Op: "getJSON", Kind: RemoteError, HTTPStatus: resp.StatusCode, Code: errObj.ErrorCode, Title: errObj.Title, Description: errObj.Description}
			}
			return nil, nil, &Error{Op: "getJSON", Kind: HttpStatus, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("rdap GET %s: %s", u, resp.Status)}

		case http.StatusNotFound:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
			resp.Body.Close()
			cancel()
			e := &Error{Op: "getJSON", Kind: NotFound, HTTPStatus: http.StatusNotFound}
			if errObj := parseErrorObject(b); errObj != nil {
				e.Code, e.Title, e.Description = errObj.ErrorCode, errObj.Title, errObj.Description
			}
			c.respCache.StoreNegative(u, 5*time.Minute, e)
			return nil, nil, e

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
			resp.Body.Close()
			cancel()
			if errObj := parseErrorObject(b); errObj != nil {
				return nil, nil, &Error{Op: "getJSON", Kind: RemoteError, HTTPStatus: resp.StatusCode, Code: errObj.ErrorCode, Title: errObj.Title, Description: errObj.Description}
			}
			return nil, nil, &Error{Op: "getJSON", Kind: HttpStatus, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("rdap GET %s: %s: %s", u, resp.Status, string(b))}
		}
	}
}

// acceptableContentType implements §4.5 step 4: content-type must start
// with application/rdap+json or application/json (the compatibility
// fallback for noncompliant servers).
func acceptableContentType(ct string) bool {
	if ct == "" {
		return true // some servers omit it; don't fail a well-formed body over this
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "application/rdap+json") || strings.HasPrefix(ct, "application/json")
}

// parseErrorObject attempts to decode body as an RDAP error object
// (errorCode present); returns nil if it doesn't look like one.
func parseErrorObject(body []byte) *ErrorObject {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	if _, ok := m["errorCode"]; !ok {
		return nil
	}
	var e ErrorObject
	decodeLenient(m, &e)
	return &e
}

func remoteErrorObjectOrNil(body []byte) error {
	if e := parseErrorObject(body); e != nil {
		return fmt.Errorf("rdap error %d: %s", e.ErrorCode, e.Title)
	}
	return nil
}

func classifyCtxErr(ctx context.Context) Kind {
	if ctx.Err() == context.DeadlineExceeded {
		return Timeout
	}
	return Cancelled
}

func isRetryableNetErr(err error) bool {
	var ne net.Error
	if errorsAs(err, &ne) && (ne.Timeout() || temporary(ne)) {
		return true
	}
	msg := lower(err.Error())
	return containsAny(msg, "connection reset", "broken pipe", "unexpected eof", "no such host")
}
