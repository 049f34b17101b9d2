package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"posledger/internal/metrics"
	"posledger/internal/service"
	"posledger/internal/store"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	AllowedOrigin string
	// RateLimitPerMinute caps /api requests per client IP. Zero disables it.
	RateLimitPerMinute int
}

type API struct {
	service            *service.Service
	logger             *zap.Logger
	metrics            *metrics.Metrics
	validate           *validator.Validate
	allowedOrigin      string
	rateLimitPerMinute int
}

func New(svc *service.Service, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.AllowedOrigin) == "" {
		opts.AllowedOrigin = "*"
	}
	return &API{
		service:            svc,
		logger:             opts.Logger,
		metrics:            opts.Metrics,
		validate:           newValidator(),
		allowedOrigin:      opts.AllowedOrigin,
		rateLimitPerMinute: opts.RateLimitPerMinute,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range a.middlewareStack() {
		r.Use(mw)
	}

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if limit := a.rateLimiter(); limit != nil {
			r.Use(limit)
		}

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", a.handleListSales)
			r.Post("/", a.handleOpenSale)
			r.Get("/{saleID}", a.handleGetSale)
			r.Post("/{saleID}/items", a.handleAppendSaleItem)
			r.Post("/{saleID}/finalize", a.handleFinalizeSale)
		})
		r.Get("/reports/sales", a.handleSalesReport)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", a.handleListProducts)
			r.Post("/", a.handleCreateProduct)
			r.Patch("/{productID}", a.handleUpdateProduct)
			r.Delete("/{productID}", a.handleDeleteProduct)
		})
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", a.handleListEmployees)
			r.Post("/", a.handleCreateEmployee)
			r.Patch("/{employeeID}", a.handleRenameEmployee)
			r.Delete("/{employeeID}", a.handleDeleteEmployee)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.service.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeAndValidate reads a single JSON object into dest and runs the struct
// validation tags on it.
func (a *API) decodeAndValidate(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil {
		return err
	}
	if err := a.validate.Struct(dest); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: field %s failed %q", store.ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", store.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", store.ErrInvalidInput, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", store.ErrInvalidInput)
	}
	return nil
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", store.ErrInvalidInput, param, raw)
	}
	return id, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.writeError(w, r, statusFor(err), err)
}

// writeError hides the cause of 5xx responses from clients; it only goes to
// the log.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		a.logger.Error("request failed",
			zap.Int("status", status),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
