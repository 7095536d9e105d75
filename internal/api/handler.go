package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/cargo-allocator/internal/allocator"
	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
	"github.com/eugenenazirov/cargo-allocator/internal/report"
	"github.com/eugenenazirov/cargo-allocator/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxRequestBody = 1 << 20

// Handler wires the engine, allocator and catalog storage into HTTP handlers.
type Handler struct {
	solver     knapsack.Solver
	allocator  *allocator.Allocator
	storage    storage.Storage
	containers [2]allocator.Container

	clock func() time.Time

	mu             sync.RWMutex
	itemsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies. containers
// are used whenever an allocation request does not name its own.
func NewHandler(solver knapsack.Solver, alloc *allocator.Allocator, store storage.Storage, containers [2]allocator.Container, opts ...HandlerOption) *Handler {
	h := &Handler{
		solver:     solver,
		allocator:  alloc,
		storage:    store,
		containers: containers,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.itemsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetItems(w http.ResponseWriter, r *http.Request) {
	_ = r
	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := itemsResponse{
		Items:     toItemPayloads(items),
		UpdatedAt: h.currentItemsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid items", "items must contain at least one item type")
		return
	}

	if err := h.storage.SetItems(fromItemPayloads(req.Items)); err != nil {
		if errors.Is(err, storage.ErrInvalidItems) {
			writeError(w, http.StatusBadRequest, "Invalid items", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markItemsUpdated()

	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := itemsResponse{
		Items:     toItemPayloads(items),
		UpdatedAt: h.currentItemsUpdatedAt(),
		Message:   "Items updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleKnapsack(w http.ResponseWriter, r *http.Request) {
	var req knapsackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Capacity == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "capacity is required")
		return
	}

	items, ok := h.requestItems(w, req.Items)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.solver.Solve(*req.Capacity, items)
	elapsed := time.Since(start)

	if err != nil {
		writeSolveError(w, err)
		return
	}

	resp := knapsackResponse{
		Capacity:          *req.Capacity,
		Selection:         result.Selection,
		Value:             result.Value,
		TotalWeight:       knapsack.TotalWeight(result.Selection, items),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	containers := h.containers
	switch len(req.Containers) {
	case 0:
	case 2:
		for i, c := range req.Containers {
			containers[i] = allocator.Container{Name: c.Name, Capacity: c.Capacity, Tare: c.Tare}
		}
	default:
		writeError(w, http.StatusBadRequest, "Invalid containers", "exactly two containers are required")
		return
	}

	items, ok := h.requestItems(w, req.Items)
	if !ok {
		return
	}

	start := time.Now()
	plan, err := h.allocator.Allocate(items, containers[0], containers[1])
	elapsed := time.Since(start)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toAllocateResponse(plan, elapsed))
	case errors.Is(err, allocator.ErrNoFeasibleSplit):
		resp := toAllocateResponse(plan, elapsed)
		resp.Error = "No feasible split found"
		resp.Suggestion = "Increase the capacity of the second container or reduce the available units"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, allocator.ErrInvalidContainer):
		writeError(w, http.StatusBadRequest, "Invalid containers", err.Error())
	default:
		writeSolveError(w, err)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "pdf" {
		writeError(w, http.StatusBadRequest, "Invalid request", "format must be text or pdf")
		return
	}

	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	status := http.StatusOK
	plan, err := h.allocator.Allocate(items, h.containers[0], h.containers[1])
	if err != nil {
		if !errors.Is(err, allocator.ErrNoFeasibleSplit) {
			writeSolveError(w, err)
			return
		}
		status = http.StatusUnprocessableEntity
	}

	var buf bytes.Buffer
	contentType := "text/plain; charset=utf-8"
	switch {
	case format == "pdf":
		contentType = "application/pdf"
		err = report.WritePDF(&buf, plan, items)
	case plan.Feasible:
		err = report.WriteText(&buf, plan, items)
	default:
		err = report.WriteInfeasible(&buf, plan)
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// requestItems returns the items supplied with a request or, when none are
// given, the stored catalog.
func (h *Handler) requestItems(w http.ResponseWriter, payloads []itemPayload) ([]knapsack.Item, bool) {
	if len(payloads) > 0 {
		return fromItemPayloads(payloads), true
	}
	items, err := h.storage.GetItems()
	if err != nil {
		writeInternalError(w, err)
		return nil, false
	}
	return items, true
}

func (h *Handler) currentItemsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.itemsUpdatedAt
}

func (h *Handler) markItemsUpdated() {
	h.mu.Lock()
	h.itemsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func writeSolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, knapsack.ErrInvalidCapacity),
		errors.Is(err, knapsack.ErrNoItems),
		errors.Is(err, knapsack.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, knapsack.ErrCapacityTooLarge):
		writeError(w, http.StatusBadRequest, "Capacity too large", err.Error(),
			"Reduce the capacity or express weights in a coarser unit")
	default:
		writeInternalError(w, err)
	}
}

type itemPayload struct {
	Name   string  `json:"name,omitempty"`
	Value  float64 `json:"value"`
	Weight int     `json:"weight"`
	Units  int     `json:"units"`
}

type containerPayload struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Tare     int    `json:"tare"`
}

type itemsRequest struct {
	Items []itemPayload `json:"items"`
}

type itemsResponse struct {
	Items     []itemPayload `json:"items"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Message   string        `json:"message,omitempty"`
}

type knapsackRequest struct {
	Capacity *int          `json:"capacity"`
	Items    []itemPayload `json:"items,omitempty"`
}

type knapsackResponse struct {
	Capacity          int     `json:"capacity"`
	Selection         []int   `json:"selection"`
	Value             float64 `json:"value"`
	TotalWeight       int     `json:"totalWeight"`
	CalculationTimeMs int64   `json:"calculationTimeMs"`
}

type allocateRequest struct {
	Containers []containerPayload `json:"containers,omitempty"`
	Items      []itemPayload      `json:"items,omitempty"`
}

type loadResponse struct {
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`
	Tare        int     `json:"tare"`
	Selection   []int   `json:"selection"`
	Value       float64 `json:"value"`
	Payload     int     `json:"payload"`
	GrossWeight int     `json:"grossWeight"`
	Unused      int     `json:"unused"`
}

type allocateResponse struct {
	Feasible          bool           `json:"feasible"`
	Selection         []int          `json:"selection"`
	Value             float64        `json:"value"`
	Payload           int            `json:"payload"`
	GrossWeight       int            `json:"grossWeight"`
	Capacity          int            `json:"capacity"`
	Unused            int            `json:"unused"`
	Containers        []loadResponse `json:"containers"`
	CalculationTimeMs int64          `json:"calculationTimeMs"`
	Error             string         `json:"error,omitempty"`
	Suggestion        string         `json:"suggestion,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func toItemPayloads(items []knapsack.Item) []itemPayload {
	out := make([]itemPayload, len(items))
	for i, item := range items {
		out[i] = itemPayload{Name: item.Name, Value: item.Value, Weight: item.Weight, Units: item.MaxCount}
	}
	return out
}

func fromItemPayloads(payloads []itemPayload) []knapsack.Item {
	out := make([]knapsack.Item, len(payloads))
	for i, p := range payloads {
		out[i] = knapsack.Item{Name: p.Name, Value: p.Value, Weight: p.Weight, MaxCount: p.Units}
	}
	return out
}

func toAllocateResponse(plan allocator.Plan, elapsed time.Duration) allocateResponse {
	loads := make([]loadResponse, 0, len(plan.Loads))
	for _, load := range plan.Loads {
		loads = append(loads, loadResponse{
			Name:        load.Container.Name,
			Capacity:    load.Container.Capacity,
			Tare:        load.Container.Tare,
			Selection:   load.Selection,
			Value:       load.Value,
			Payload:     load.Payload,
			GrossWeight: load.GrossWeight,
			Unused:      load.Unused,
		})
	}
	return allocateResponse{
		Feasible:          plan.Feasible,
		Selection:         plan.Selection,
		Value:             plan.Value,
		Payload:           plan.Payload,
		GrossWeight:       plan.GrossWeight,
		Capacity:          plan.Capacity,
		Unused:            plan.Unused,
		Containers:        loads,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
