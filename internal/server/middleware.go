package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	maxLoggedBody   = 4096
)

const (
	requestLogKey contextKey = "request-log"
	redactedBody             = "[redacted]"
	loggedBodyPrefix         = "/api/packages"
)

// requestLog is shared between loggingMiddleware and the routed handlers of one request.
// Request bodies are redacted unless a package route matched.
type requestLog struct {
	keepBody bool
}

// bodyLoggingMiddleware runs on matched routes only and allows logging the bodies of package requests.
func (s *Server) bodyLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if state, ok := r.Context().Value(requestLogKey).(*requestLog); ok {
			if route := mux.CurrentRoute(r); route != nil {
				tpl, err := route.GetPathTemplate()
				state.keepBody = err == nil && strings.HasPrefix(tpl, loggedBodyPrefix)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs every request with its response, recovers handler panics
// and hands an audit entry to the AuditManager.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		var requestBody []byte
		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && r.Body != nil &&
			!strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			var err error
			requestBody, err = io.ReadAll(r.Body)
			if err != nil {
				s.logger.Warn("failed to read request body", zap.String("request_id", requestID), zap.Error(err))
			}
			r.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		state := &requestLog{}
		r = r.WithContext(context.WithValue(r.Context(), requestLogKey, state))
		wrw := newResponseWriterWrapper(w)

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic while handling request",
					zap.String("request_id", requestID),
					zap.String("method", r.Method),
					zap.String("uri", r.URL.RequestURI()),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				if !wrw.wroteHeader {
					respondError(wrw, http.StatusInternalServerError, titleInternal, internalErrorDetails)
				} else {
					wrw.statusCode = http.StatusInternalServerError
				}
			}
			if !state.keepBody && len(requestBody) > 0 {
				requestBody = []byte(redactedBody)
			}
			s.finishRequest(r, wrw, requestID, requestBody, time.Since(start))
		}()

		next.ServeHTTP(wrw, r)
	})
}

func (s *Server) finishRequest(r *http.Request, wrw *responseWriterWrapper, requestID string, requestBody []byte, elapsed time.Duration) {
	status := wrw.GetStatusCode()
	metrics.HTTPRequestDuration.WithLabelValues(r.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())

	request := truncateBody(requestBody)
	response := truncateBody(wrw.GetBody())

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.String("proto", r.Proto),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if request != "" {
		fields = append(fields, zap.String("request_body", request))
	}
	if response != "" {
		fields = append(fields, zap.String("response_body", response))
	}
	if ce := s.logger.Check(levelForStatus(status), "http request"); ce != nil {
		ce.Write(fields...)
	}

	if s.AuditManager == nil {
		return
	}
	s.AuditManager.LogEntry(r.Context(), AuditLogEntry{
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Proto:      r.Proto,
		StatusCode: status,
		DurationMs: elapsed.Milliseconds(),
		PackageID:  packageIDFromPath(r.URL.Path),
		Request:    request,
		Response:   response,
	})
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func truncateBody(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "...(truncated)"
	}
	return string(body)
}

func packageIDFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/packages/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}
