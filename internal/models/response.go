package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// NodeListResponse represents the node listing response
type NodeListResponse struct {
	Nodes []NodeView `json:"nodes"`
	Count int        `json:"count"`
}

// NodeView is the API representation of a node, with derived online status.
type NodeView struct {
	PublicKey       string         `json:"public_key"`
	Host            string         `json:"host"`
	Port            int            `json:"port,omitempty"`
	Version         string         `json:"version,omitempty"`
	Online          bool           `json:"online"`
	StorageUsed     int64          `json:"storage_used"`
	StorageCapacity int64          `json:"storage_capacity"`
	LastSeen        string         `json:"last_seen"`
	Stats           *ResourceStats `json:"stats,omitempty"`
}

// NodeStatsResponse represents a single-node stats response
type NodeStatsResponse struct {
	PublicKey string         `json:"public_key"`
	Stats     *ResourceStats `json:"stats"`
}

// MapNode is a node joined with its cached geo location, for map rendering.
type MapNode struct {
	PublicKey string   `json:"public_key"`
	Host      string   `json:"host"`
	Online    bool     `json:"online"`
	Location  *GeoInfo `json:"location,omitempty"`
}

// GeoInfo represents a resolved IP location
type GeoInfo struct {
	Country   string  `json:"country,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// MapNodesResponse represents the map listing response
type MapNodesResponse struct {
	Nodes []MapNode `json:"nodes"`
	Count int       `json:"count"`
}

// AnalyticsResponse represents the cached fleet snapshot
type AnalyticsResponse struct {
	TotalNodes      int            `json:"total_nodes"`
	OnlineNodes     int            `json:"online_nodes"`
	OnlinePercent   float64        `json:"online_percent"`
	StorageUsed     int64          `json:"storage_used"`
	StorageCapacity int64          `json:"storage_capacity"`
	StoragePercent  float64        `json:"storage_percent"`
	Versions        map[string]int `json:"versions"`
	GeneratedAt     string         `json:"generated_at"`
}

// RefreshResponse represents the admin refresh response
type RefreshResponse struct {
	Refreshed bool `json:"refreshed"`
	NodeCount int  `json:"node_count"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}
