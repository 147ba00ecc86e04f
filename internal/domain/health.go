package domain

// APIHealth is the REST backend's health probe payload.
type APIHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ServiceHealth describes one dependency's health in the healthz response.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is the aggregate healthz payload.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}
