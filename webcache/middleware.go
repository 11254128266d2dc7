package webcache

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// HeaderCache reports HIT or MISS so operators can observe cache behavior;
// clients see an ordinary JSON response either way.
const HeaderCache = "X-Cache"

// errUncacheable marks a response that streamed to the client but must not
// be stored (anything other than a 200).
var errUncacheable = errors.New("webcache: response not cacheable")

// cachedResponse is the envelope stored per key. The body is opaque bytes;
// status and content type are carried so a hit can be replayed verbatim.
type cachedResponse struct {
	Status      int    `msgpack:"status"`
	ContentType string `msgpack:"content_type"`
	Body        []byte `msgpack:"body"`
}

// Middleware wraps GET handlers in the read-through cache. On a hit the
// stored response is replayed in one store round trip and the handler never
// runs. On a miss the handler streams to the client while being recorded,
// and a 200 result is stored with the given TTL before the request returns.
// Non-GET requests and non-200 responses pass through uncached.
func (c *ResponseCache) Middleware(ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			req := ec.Request()
			if req.Method != http.MethodGet {
				return next(ec)
			}

			key := ResponseKey(req.URL.Path, req.URL.RawQuery)
			res := ec.Response()
			res.Header().Set(HeaderCache, "MISS")

			producer := func(ctx context.Context) ([]byte, error) {
				rec := newBodyRecorder(res.Writer)
				res.Writer = rec
				defer func() { res.Writer = rec.ResponseWriter }()

				if err := next(ec); err != nil {
					return nil, err
				}
				if rec.status != http.StatusOK {
					return nil, errUncacheable
				}
				return msgpack.Marshal(cachedResponse{
					Status:      rec.status,
					ContentType: rec.Header().Get(echo.HeaderContentType),
					Body:        rec.buf.Bytes(),
				})
			}

			payload, hit, err := c.Wrap(req.Context(), key, ttl, producer)
			if err != nil {
				if errors.Is(err, errUncacheable) {
					// Already streamed to the client, just not stored.
					return nil
				}
				return err
			}
			if !hit {
				// The recorder teed the fresh response to the client.
				return nil
			}

			var stored cachedResponse
			if err := msgpack.Unmarshal(payload, &stored); err != nil {
				c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
				_ = c.kv.Delete(req.Context(), key)
				return next(ec)
			}
			res.Header().Set(HeaderCache, "HIT")
			return ec.Blob(stored.Status, stored.ContentType, stored.Body)
		}
	}
}

// bodyRecorder tees response writes into a buffer while passing them through
// to the client unchanged.
type bodyRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func newBodyRecorder(w http.ResponseWriter) *bodyRecorder {
	return &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
