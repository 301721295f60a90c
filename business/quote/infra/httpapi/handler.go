// Package httpapi serves quotes over HTTP and a websocket stream.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/logger"
)

const (
	defaultStreamInterval = 12 * time.Second
	maxBodyBytes          = 1 << 16
)

// Handler exposes the quote service.
type Handler struct {
	svc            *app.QuoteService
	logger         logger.LoggerInterface
	places         int32
	streamInterval time.Duration
	requestTimeout time.Duration
}

// Options configures a Handler.
type Options struct {
	// DisplayDecimals is the number of fractional digits in human amounts.
	DisplayDecimals int32
	// StreamInterval is how often the websocket stream re-quotes.
	StreamInterval time.Duration
	// RequestTimeout bounds the REST routes; zero leaves them unbounded.
	RequestTimeout time.Duration
	Logger         logger.LoggerInterface
}

// NewHandler creates a Handler.
func NewHandler(svc *app.QuoteService, opts Options) *Handler {
	h := &Handler{
		svc:            svc,
		logger:         opts.Logger,
		places:         opts.DisplayDecimals,
		streamInterval: opts.StreamInterval,
		requestTimeout: opts.RequestTimeout,
	}
	if h.logger == nil {
		h.logger = logger.NewNop()
	}
	if h.places <= 0 {
		h.places = 6
	}
	if h.streamInterval <= 0 {
		h.streamInterval = defaultStreamInterval
	}
	return h
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/quote/stream", h.streamQuotes)

		r.Group(func(r chi.Router) {
			if h.requestTimeout > 0 {
				r.Use(middleware.Timeout(h.requestTimeout))
			}
			r.Get("/quote", h.getQuote)
			r.Post("/swap-plan", h.postSwapPlan)
			r.Get("/compare", h.getCompare)
			r.Get("/sources/{name}/inspect", h.getInspect)
		})
	})
	return r
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	req, err := quoteRequestFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q, err := h.svc.GetQuote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewQuoteView(q, h.places))
}

// swapPlanBody is the POST /v1/swap-plan payload.
type swapPlanBody struct {
	ChainID         uint64   `json:"chainId"`
	TokenIn         string   `json:"tokenIn"`
	TokenOut        string   `json:"tokenOut"`
	AmountIn        string   `json:"amountIn"`
	SlippageBps     *int64   `json:"slippageBps"`
	DeadlineSeconds int64    `json:"deadlineSeconds"`
	Strict          bool     `json:"strict"`
	Sources         []string `json:"sources"`
}

func (h *Handler) postSwapPlan(w http.ResponseWriter, r *http.Request) {
	var body swapPlanBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, r, apperror.New(apperror.CodeParseError, apperror.WithContext("request body"), apperror.WithCause(err)))
		return
	}
	if body.DeadlineSeconds < 0 {
		h.writeError(w, r, apperror.New(apperror.CodeInvalidDeadline))
		return
	}

	q, err := h.svc.GetQuote(r.Context(), app.QuoteRequest{
		ChainID:     body.ChainID,
		TokenIn:     body.TokenIn,
		TokenOut:    body.TokenOut,
		AmountIn:    body.AmountIn,
		SlippageBps: body.SlippageBps,
		Strict:      body.Strict,
		Sources:     body.Sources,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.svc.BuildSwapPlan(q, app.PlanRequest{
		SlippageBps: body.SlippageBps,
		Deadline:    time.Duration(body.DeadlineSeconds) * time.Second,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewPlanView(plan, h.places))
}

func (h *Handler) getCompare(w http.ResponseWriter, r *http.Request) {
	req, err := quoteRequestFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	via := r.URL.Query().Get("via")
	if via == "" {
		h.writeError(w, r, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("via is required")))
		return
	}

	c, err := h.svc.CompareRoutes(r.Context(), req, via)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComparisonView(c, h.places))
}

func (h *Handler) getInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chainID, err := parseChainID(q.Get("chainId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	in, err := h.svc.InspectSource(r.Context(), chi.URLParam(r, "name"), chainID, q.Get("tokenIn"), q.Get("tokenOut"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewInspectionView(in, h.places))
}

func quoteRequestFromQuery(r *http.Request) (app.QuoteRequest, error) {
	q := r.URL.Query()

	chainID, err := parseChainID(q.Get("chainId"))
	if err != nil {
		return app.QuoteRequest{}, err
	}

	req := app.QuoteRequest{
		ChainID:  chainID,
		TokenIn:  q.Get("tokenIn"),
		TokenOut: q.Get("tokenOut"),
		AmountIn: q.Get("amountIn"),
	}
	if req.TokenIn == "" || req.TokenOut == "" || req.AmountIn == "" {
		return app.QuoteRequest{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("tokenIn, tokenOut and amountIn are required"))
	}

	if s := q.Get("slippageBps"); s != "" {
		bps, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return app.QuoteRequest{}, apperror.New(apperror.CodeInvalidSlippage, apperror.WithContext(s))
		}
		req.SlippageBps = &bps
	}
	if s := q.Get("strict"); s != "" {
		strict, err := strconv.ParseBool(s)
		if err != nil {
			return app.QuoteRequest{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("strict: "+s))
		}
		req.Strict = strict
	}
	if s := q.Get("sources"); s != "" {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Sources = append(req.Sources, name)
			}
		}
	}
	return req, nil
}

func parseChainID(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("chainId: "+s))
	}
	return id, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.New(apperror.CodeInternalError, apperror.WithCause(err))
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		appErr.WithTraceID(id)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", appErr.ToLog())
	} else {
		h.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "code", appErr.Code)
	}

	writeJSON(w, appErr.StatusCode, appErr.ToResponse())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
