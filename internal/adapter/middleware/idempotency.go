package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// How long a running claim holds its key before another attempt may take it.
	claimTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At.
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// capture tees the response body so it can be stored for replay.
type capture struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (w *capture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capture) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// IdempotencyMiddleware makes loan mutations safe to retry. Each request is
// keyed by loan, operation, calling client (borrower app, back-office tool,
// loanctl) and request id. A retry with the same body gets the first
// response back with Ax-Idempotent-Replay and the loan status it reported.
// Server errors release the key so the retry runs again.
func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := &replayStore{rdb: rdb, claimTTL: claimTTL, doneTTL: ttl}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			h, err := readHeaders(req.Header.Get)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			if now := nowUTC(); h.at.Before(now.Add(-maxClockSkew)) || h.at.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Ax-Request-At too skewed"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)

			sc := scopeOf(c, h)
			rec := record{Op: sc.Op, LoanID: sc.LoanID, Fingerprint: hex.EncodeToString(sum[:]), RequestAt: h.at}
			lg := log.With(zap.String("loan_id", sc.LoanID), zap.String("op", string(sc.Op)), zap.String("request_id", sc.RequestID))

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			claimed, err := store.claim(ctx, sc, rec)
			if err != nil {
				lg.Error("idempotency store unavailable", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				return replay(ctx, c, store, sc, rec, lg)
			}

			w := &capture{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may be gone by now
			sctx, scancel := context.WithTimeout(context.Background(), storeTimeout)
			defer scancel()
			if w.code >= http.StatusInternalServerError {
				if err := store.release(sctx, sc); err != nil {
					lg.Warn("idempotency claim not released", zap.Error(err))
				}
				return nil
			}
			rec.Code, rec.Body = w.code, w.buf.Bytes()
			if sc.reportsStatus() && w.code < http.StatusBadRequest {
				rec.LoanStatus = loanStatusOf(rec.Body)
			}
			if err := store.complete(sctx, sc, rec); err != nil {
				lg.Warn("idempotency record not saved", zap.Error(err))
			}
			return nil
		}
	}
}

func replay(ctx context.Context, c echo.Context, store *replayStore, sc scope, incoming record, lg *zap.Logger) error {
	cur, err := store.load(ctx, sc)
	if err != nil {
		lg.Warn("idempotency record load failed", zap.Error(err))
		return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
	}
	if cur.Fingerprint != incoming.Fingerprint {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Ax-Request-Id reused with different body"})
	}
	if !cur.replayable() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
	}
	c.Response().Header().Set(HeaderReplay, "true")
	if cur.LoanStatus != "" {
		c.Response().Header().Set(HeaderLoanStatus, cur.LoanStatus)
	}
	return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
}
