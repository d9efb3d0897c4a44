package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	domain "github.com/zyzu25/CIANCSC/internal/domain/contact"
	"github.com/zyzu25/CIANCSC/internal/errs"
	contactuc "github.com/zyzu25/CIANCSC/internal/usecase/contact"
)

const (
	defaultMaxBodyBytes = 64 << 10
	requestIDHeader     = "X-Request-ID"
)

type contactSubmitService interface {
	Submit(context.Context, contactuc.SubmitInput) (contactuc.SubmitResult, error)
}

type contactAPIOptions struct {
	MaxBodyBytes int64
	// Health reports backing-store reachability for /healthz. Nil means always healthy.
	Health func(context.Context) error
}

type contactAPIHandler struct {
	svc  contactSubmitService
	opts contactAPIOptions
}

type contactRequest struct {
	Category string          `json:"category"`
	Payload  json.RawMessage `json:"payload"`
	Metadata contactMetadata `json:"metadata"`

	// Keys posted by older front-end builds.
	FormType string          `json:"formType"`
	FormData json.RawMessage `json:"formData"`
}

type contactMetadata struct {
	Timestamp   string `json:"timestamp"`
	ClientAgent string `json:"clientAgent"`
	UserAgent   string `json:"userAgent"`
}

type contactSuccessResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	SubmissionID          uint64 `json:"submissionId"`
	NotificationDelivered bool   `json:"notificationDelivered"`
}

type contactErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func newContactAPIHandler(svc contactSubmitService, opts contactAPIOptions) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	h := &contactAPIHandler{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(recoverJSON)
	r.Use(requestLogger)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeContactError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeContactError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Post("/api/contact", h.submit)
	r.Get("/healthz", h.health)
	return r
}

func (h *contactAPIHandler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		writeContactError(w, http.StatusInternalServerError, "Failed to process contact form", nil)
		return
	}

	var req contactRequest
	if err := decodeSingleJSON(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes), &req); err != nil {
		message := "Invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = "Request body too large"
		}
		writeContactError(w, http.StatusBadRequest, message, []domain.FieldError{{
			Field: "body", Rule: "json", Message: err.Error(),
		}})
		return
	}

	category := firstNonEmpty(req.Category, req.FormType)
	payload := req.Payload
	if len(payload) == 0 {
		payload = req.FormData
	}
	clientAgent := firstNonEmpty(req.Metadata.ClientAgent, req.Metadata.UserAgent, r.UserAgent())

	if ts := strings.TrimSpace(req.Metadata.Timestamp); ts != "" {
		ctx = logging.WithAttrs(ctx, slog.String("client_timestamp", ts))
	}

	res, err := h.svc.Submit(ctx, contactuc.SubmitInput{
		Category:      category,
		Payload:       payload,
		SourceAddress: sourceAddress(r),
		ClientAgent:   clientAgent,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeContactError(w, http.StatusBadRequest, "Validation failed", verr.Fields)
			return
		}
		logging.Error(ctx, "process contact form failed", slog.Any("err", errs.Loggable(err)))
		writeContactError(w, http.StatusInternalServerError, "Failed to process contact form", nil)
		return
	}

	writeContactJSON(w, http.StatusOK, contactSuccessResponse{
		Success:               true,
		Message:               "Contact form submitted successfully",
		SubmissionID:          res.SubmissionID,
		NotificationDelivered: res.NotificationDelivered,
	})
}

func (h *contactAPIHandler) health(w http.ResponseWriter, r *http.Request) {
	if h.opts.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Health(ctx); err != nil {
			logging.Warn(r.Context(), "health check failed", slog.Any("err", errs.Loggable(err)))
			writeContactJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeContactJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sourceAddress is the submitter's IP. RealIP has already applied any proxy headers.
func sourceAddress(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logging.WithAttrs(r.Context(),
			slog.String("request_id", id),
			slog.String("component", "http.contact"),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := errs.WithStack(fmt.Errorf("panic: %v", rec))
			logging.Error(r.Context(), "handler panicked", slog.Any("err", errs.Loggable(err)))
			writeContactError(w, http.StatusInternalServerError, "Failed to process contact form", nil)
		}()
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logging.Info(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("remote", sourceAddress(r)),
			slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
		)
	})
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeSingleJSON decodes exactly one JSON value; anything but whitespace after it is rejected.
func decodeSingleJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errTrailingData
	}
	return nil
}

func writeContactError(w http.ResponseWriter, status int, message string, fields []domain.FieldError) {
	writeContactJSON(w, status, contactErrorResponse{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}

func writeContactJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
