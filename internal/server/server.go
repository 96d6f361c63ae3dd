package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/internal/history"
	"github.com/iwvelando/weight-balance/internal/optimizer"
	"github.com/iwvelando/weight-balance/internal/ranking"
	"github.com/iwvelando/weight-balance/internal/registry"
	"github.com/iwvelando/weight-balance/pkg/constants"
)

// Options wires the handler to the loaded configuration and services.
type Options struct {
	Config      *config.Configuration
	Runner      *optimizer.Runner
	History     history.Reader
	Gatherer    prometheus.Gatherer
	MaxBodySize int64
	Version     string
}

type handler struct {
	logger      *zap.Logger
	conf        *config.Configuration
	registry    *registry.Registry
	runner      *optimizer.Runner
	history     history.Reader
	validate    *validator.Validate
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the weight and balance API.
func NewHandler(logger *zap.Logger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Config == nil {
		return nil, errors.New("server: configuration is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("server: optimizer runner is required")
	}

	reg, err := opts.Config.Registry()
	if err != nil {
		return nil, fmt.Errorf("server: build position registry: %w", err)
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		conf:        opts.Config,
		registry:    reg,
		runner:      opts.Runner,
		history:     opts.History,
		validate:    validator.New(),
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()

	// Calculation endpoints
	mux.HandleFunc("/api/trajectory", h.handleTrajectory)
	mux.HandleFunc("/api/fuel", h.handleFuel)
	mux.HandleFunc("/api/envelope", h.handleEnvelope)

	// Optimization endpoints
	mux.HandleFunc("/api/optimize", h.handleOptimize)
	mux.HandleFunc("/api/window", h.handleWindow)
	mux.HandleFunc("/api/direction", h.handleDirection)

	// Read-only metadata
	mux.HandleFunc("/api/rankings", h.handleRankings)
	mux.HandleFunc("/api/variants", h.handleVariants)
	mux.HandleFunc("/api/version", h.handleVersion)

	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux, nil
}

type itemRequest struct {
	Position string  `json:"position" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0"`
}

// loadRequest names a loading either as explicit items or as weights laid
// onto a configured pattern.
type loadRequest struct {
	Variant string        `json:"variant" validate:"required"`
	Items   []itemRequest `json:"items" validate:"dive"`
	Pattern string        `json:"pattern"`
	Weights []float64     `json:"weights" validate:"dive,gte=0"`
}

type fuelRequest struct {
	loadRequest
	FuelWeight float64 `json:"fuelWeight" validate:"gte=0"`
}

type envelopeRequest struct {
	Variant string         `json:"variant" validate:"required"`
	Points  []pointRequest `json:"points" validate:"dive"`
}

type pointRequest struct {
	CG     float64 `json:"cg"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

type optimizeRequest struct {
	Variant    string    `json:"variant" validate:"required"`
	Pattern    string    `json:"pattern" validate:"required"`
	Weights    []float64 `json:"weights" validate:"dive,gte=0"`
	Method     string    `json:"method" validate:"omitempty,oneof=local pso bounded compare"`
	TargetCG   *float64  `json:"targetCG"`
	FuelWeight float64   `json:"fuelWeight" validate:"gte=0"`
	Seed       *int64    `json:"seed"`
}

type directionRequest struct {
	optimizeRequest
	Direction string `json:"direction" validate:"required,oneof=forward aft"`
}

type trajectoryResponse struct {
	Trajectory balance.Trajectory `json:"trajectory"`
	InEnvelope []bool             `json:"inEnvelope"`
	Warnings   []string           `json:"warnings,omitempty"`
	Duration   string             `json:"duration"`
}

type fuelResponse struct {
	trajectoryResponse
	Extension *balance.FuelExtension `json:"extension,omitempty"`
}

type pointResult struct {
	CG        float64 `json:"cg"`
	Weight    float64 `json:"weight"`
	Inside    bool    `json:"inside"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Bracketed bool    `json:"bracketed"`
}

type envelopeResponse struct {
	Variant string               `json:"variant"`
	Bounds  balance.Bounds       `json:"bounds"`
	Curves  []balance.NamedCurve `json:"curves"`
	Points  []pointResult        `json:"points"`
}

type variantSummary struct {
	Name       string         `json:"name"`
	BaselineCG float64        `json:"baselineCG"`
	Baseline   float64        `json:"baselineWeight"`
	Bounds     balance.Bounds `json:"bounds"`
	HasFuel    bool           `json:"hasFuelTable"`
}

type rankingsResponse struct {
	Rankings  []ranking.Entry   `json:"rankings"`
	Analytics ranking.Analytics `json:"analytics"`
}

func (h *handler) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTrajectory"
	start := time.Now()
	var req loadRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	v, items, err := h.resolveLoad(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	traj := balance.ComputeTrajectory(items, v, h.registry)
	h.writeJSON(w, http.StatusOK, h.trajectoryResponse(traj, v, start))
}

func (h *handler) handleFuel(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFuel"
	start := time.Now()
	var req fuelRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	v, items, err := h.resolveLoad(req.loadRequest)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	traj := balance.ComputeTrajectory(items, v, h.registry)
	ext, err := balance.ExtendWithFuel(traj.Last(), req.FuelWeight, v)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	fueled, err := traj.WithFuel(req.FuelWeight, v)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, fuelResponse{
		trajectoryResponse: h.trajectoryResponse(fueled, v, start),
		Extension:          ext,
	})
}

func (h *handler) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEnvelope"
	var req envelopeRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	v, err := h.conf.Variant(req.Variant)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	points := make([]pointResult, len(req.Points))
	for i, p := range req.Points {
		lower, upper, bracketed := v.Envelope.Limits(p.CG)
		points[i] = pointResult{
			CG:        p.CG,
			Weight:    p.Weight,
			Inside:    balance.IsInEnvelope(p.CG, p.Weight, v),
			Lower:     lower,
			Upper:     upper,
			Bracketed: bracketed,
		}
	}

	h.writeJSON(w, http.StatusOK, envelopeResponse{
		Variant: v.Name,
		Bounds:  v.Envelope.Bounds,
		Curves:  v.Envelope.Curves(),
		Points:  points,
	})
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	var req optimizeRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	runReq, err := h.runnerRequest(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	out, err := h.runner.Optimize(r.Context(), runReq)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleWindow(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWindow"
	var req optimizeRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	runReq, err := h.runnerRequest(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	window, err := h.runner.Window(r.Context(), runReq)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, window)
}

func (h *handler) handleDirection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDirection"
	var req directionRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	runReq, err := h.runnerRequest(req.optimizeRequest)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	res, err := h.runner.Direction(r.Context(), runReq, optimizer.Direction(req.Direction))
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleRankings(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRankings"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resp := rankingsResponse{Rankings: []ranking.Entry{}}
	if h.history != nil {
		records, err := h.history.List(r.Context(), "")
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read history: %v", err), op)
			return
		}
		resp.Rankings = ranking.Build(h.logger, records, h.conf.PatternRatings())
		resp.Analytics = ranking.Summarize(resp.Rankings, records)
	} else {
		resp.Analytics = ranking.Summarize(nil, nil)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleVariants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	variants := make([]variantSummary, 0, len(h.conf.Aircraft))
	for _, ac := range h.conf.Aircraft {
		v := ac.ToVariant()
		baseline := v.BaselineRow()
		variants = append(variants, variantSummary{
			Name:       v.Name,
			BaselineCG: baseline.CG,
			Baseline:   baseline.Weight,
			Bounds:     v.Envelope.Bounds,
			HasFuel:    len(v.FuelTable) > 0,
		})
	}

	patterns := make([]string, len(h.conf.Patterns))
	for i, p := range h.conf.Patterns {
		patterns[i] = p.Name
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"variants": variants,
		"patterns": patterns,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decode reads a POST body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
		case errors.Is(err, io.EOF):
			h.respondErrorWithOp(w, http.StatusBadRequest, "request body is empty", op)
		default:
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		}
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err), op)
		return false
	}
	return true
}

// resolveLoad looks up the variant and turns the request into weight items.
// Explicit items win over pattern weights.
func (h *handler) resolveLoad(req loadRequest) (*balance.Variant, []balance.WeightItem, error) {
	v, err := h.conf.Variant(req.Variant)
	if err != nil {
		return nil, nil, err
	}
	if len(req.Items) > 0 {
		items := make([]balance.WeightItem, len(req.Items))
		for i, item := range req.Items {
			items[i] = balance.WeightItem{Position: balance.PositionCode(item.Position), Weight: item.Weight}
		}
		return v, items, nil
	}
	if req.Pattern == "" {
		return v, nil, nil
	}
	pattern, err := h.conf.Pattern(req.Pattern)
	if err != nil {
		return nil, nil, err
	}
	return v, balance.Pair(req.Weights, pattern.Codes()), nil
}

// runnerRequest maps an API request onto an optimizer request. The weights
// fill the first positions of the pattern.
func (h *handler) runnerRequest(req optimizeRequest) (optimizer.Request, error) {
	v, err := h.conf.Variant(req.Variant)
	if err != nil {
		return optimizer.Request{}, err
	}
	pattern, err := h.conf.Pattern(req.Pattern)
	if err != nil {
		return optimizer.Request{}, err
	}
	return optimizer.Request{
		Pattern:    pattern.Name,
		Positions:  pattern.Prefix(len(req.Weights)),
		Variant:    v,
		Arms:       h.registry,
		Weights:    req.Weights,
		Method:     optimizer.Method(req.Method),
		TargetCG:   req.TargetCG,
		FuelWeight: req.FuelWeight,
		Seed:       req.Seed,
	}, nil
}

func (h *handler) trajectoryResponse(traj balance.Trajectory, v *balance.Variant, start time.Time) trajectoryResponse {
	inside := make([]bool, len(traj.Points))
	for i, p := range traj.Points {
		inside[i] = v.Envelope.ContainsPoint(p)
	}
	warnings := traj.Warnings()
	for _, warning := range warnings {
		h.logger.Warn("loading item skipped",
			zap.String("op", "server.trajectoryResponse"),
			zap.String("warning", warning))
	}
	return trajectoryResponse{
		Trajectory: traj,
		InEnvelope: inside,
		Warnings:   warnings,
		Duration:   time.Since(start).String(),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before writing the status, so an unencodable
// payload becomes a 500 instead of an empty response.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
