package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"

	"github.com/azybler/delaypath/pkg/constrained"
	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/routing"
	"github.com/azybler/delaypath/pkg/sssp"
	"github.com/azybler/delaypath/pkg/walks"
)

const maxBodyBytes = 4096

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router routing.Router
	stats  StatsResponse
}

// NewHandlers creates handlers with the given router.
func NewHandlers(router routing.Router, stats StatsResponse) *Handlers {
	return &Handlers{
		router: router,
		stats:  stats,
	}
}

// decodeJSON enforces the content type and body size and decodes into v.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

// HandlePath handles POST /api/v1/path.
func (h *Handlers) HandlePath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	source, ok := h.resolve(r.Context(), w, req.Source, req.Start, "start")
	if !ok {
		return
	}
	target, ok := h.resolve(r.Context(), w, req.Target, req.End, "end")
	if !ok {
		return
	}

	result, err := h.router.ShortestPath(r.Context(), routing.PathRequest{
		Source:    source,
		Target:    target,
		Algorithm: req.Algorithm,
		Delta:     req.Delta,
	})
	if err != nil {
		writeRouteError(w, err)
		return
	}

	writeJSON(w, PathResponse{
		Algorithm: result.Algorithm,
		Source:    source,
		Target:    target,
		Length:    result.Distance,
		Delay:     result.Delay,
		Path:      result.Path,
	})
}

// resolve returns id when set, otherwise the vertex nearest to ll.
func (h *Handlers) resolve(ctx context.Context, w http.ResponseWriter, id uint32, ll *LatLngJSON, field string) (uint32, bool) {
	if id != 0 {
		return id, true
	}
	if ll == nil {
		writeError(w, http.StatusBadRequest, "missing_vertex", field)
		return 0, false
	}
	if err := validateCoord(*ll); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", field)
		return 0, false
	}
	v, dist, err := h.router.Nearest(ctx, routing.LatLng{Lat: ll.Lat, Lng: ll.Lng})
	if err != nil {
		if errors.Is(err, routing.ErrPointTooFar) {
			writeErrorBody(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error: "point_too_far_from_road", Field: field, DistanceMeters: math.Round(dist),
			})
			return 0, false
		}
		writeRouteError(w, err)
		return 0, false
	}
	return v, true
}

// HandleConstrained handles POST /api/v1/constrained.
func (h *Handlers) HandleConstrained(w http.ResponseWriter, r *http.Request) {
	var req ConstrainedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Bound == nil {
		writeError(w, http.StatusBadRequest, "missing_bound", "bound")
		return
	}

	result, err := h.router.Constrained(r.Context(), routing.ConstrainedRequest{
		Source:    req.Source,
		Target:    req.Target,
		Bound:     *req.Bound,
		Algorithm: req.Algorithm,
		Objective: routing.Objective(req.Objective),
	})
	if err != nil {
		writeRouteError(w, err)
		return
	}

	writeJSON(w, ConstrainedResponse{
		Algorithm: result.Algorithm,
		Objective: string(result.Objective),
		Bound:     *req.Bound,
		Length:    result.Weight,
		Delay:     result.Delay,
		Path:      result.Path,
	})
}

// HandleWalks handles POST /api/v1/walks.
func (h *Handlers) HandleWalks(w http.ResponseWriter, r *http.Request) {
	var req WalksRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.router.Walks(r.Context(), routing.WalksRequest{Source: req.Source, K: req.K})
	if err != nil {
		writeRouteError(w, err)
		return
	}

	resp := WalksResponse{Source: req.Source, Walks: make([]WalkJSON, len(result))}
	for i, wk := range result {
		resp.Walks[i] = WalkJSON{Length: wk.Weight, Path: wk.Vertices}
	}
	writeJSON(w, resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

// writeRouteError maps engine and solver errors to status codes.
func writeRouteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, graph.ErrInvalidVertex):
		writeError(w, http.StatusBadRequest, "invalid_vertex", "")
	case errors.Is(err, routing.ErrUnknownAlgorithm):
		writeError(w, http.StatusBadRequest, "unknown_algorithm", "algorithm")
	case errors.Is(err, constrained.ErrInvalidBound):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "bound")
	case errors.Is(err, walks.ErrInvalidK):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "k")
	case errors.Is(err, sssp.ErrInvalidDelta):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "delta")
	case errors.Is(err, routing.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "")
	case errors.Is(err, routing.ErrPointTooFar):
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
	case errors.Is(err, routing.ErrNoCoordinates):
		writeError(w, http.StatusUnprocessableEntity, "no_coordinates", "")
	case errors.Is(err, sssp.ErrNegativeWeight):
		writeError(w, http.StatusUnprocessableEntity, "negative_weight", "")
	case errors.Is(err, sssp.ErrNegativeCycle):
		writeError(w, http.StatusUnprocessableEntity, "negative_cycle", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeErrorBody(w, status, ErrorResponse{Error: code, Field: field})
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorResponse) {
	body.RequestID = w.Header().Get(requestIDHeader)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
