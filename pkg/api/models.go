package api

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PathRequest is the JSON body for POST /api/v1/path. Source and Target may
// be replaced by Start and End coordinates, which snap to the nearest vertex.
type PathRequest struct {
	Source    uint32      `json:"source"`
	Target    uint32      `json:"target"`
	Start     *LatLngJSON `json:"start,omitempty"`
	End       *LatLngJSON `json:"end,omitempty"`
	Algorithm string      `json:"algorithm"`
	Delta     int64       `json:"delta"`
}

// PathResponse is the JSON response for a successful path query.
type PathResponse struct {
	Algorithm string   `json:"algorithm"`
	Source    uint32   `json:"source"`
	Target    uint32   `json:"target"`
	Length    int64    `json:"length"`
	Delay     int64    `json:"delay"`
	Path      []uint32 `json:"path"`
}

// ConstrainedRequest is the JSON body for POST /api/v1/constrained.
type ConstrainedRequest struct {
	Source    uint32 `json:"source"`
	Target    uint32 `json:"target"`
	Bound     *int   `json:"bound"`
	Algorithm string `json:"algorithm"`
	Objective string `json:"objective"`
}

// ConstrainedResponse is the JSON response for a delay-bounded query.
type ConstrainedResponse struct {
	Algorithm string   `json:"algorithm"`
	Objective string   `json:"objective"`
	Bound     int      `json:"bound"`
	Length    int64    `json:"length"`
	Delay     int64    `json:"delay"`
	Path      []uint32 `json:"path"`
}

// WalksRequest is the JSON body for POST /api/v1/walks.
type WalksRequest struct {
	Source uint32 `json:"source"`
	K      int    `json:"k"`
}

// WalkJSON is one ranked walk.
type WalkJSON struct {
	Length int64    `json:"length"`
	Path   []uint32 `json:"path"`
}

// WalksResponse is the JSON response for POST /api/v1/walks.
type WalksResponse struct {
	Source uint32     `json:"source"`
	Walks  []WalkJSON `json:"walks"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error          string  `json:"error"`
	Field          string  `json:"field,omitempty"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	RequestID      string  `json:"request_id,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes   uint32   `json:"num_nodes"`
	NumEdges   uint32   `json:"num_edges"`
	Bound      int64    `json:"bound"`
	HasCoords  bool     `json:"has_coords"`
	Algorithms []string `json:"algorithms"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
