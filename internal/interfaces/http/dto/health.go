package dto

// Health statuses
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// HealthResponse reports the state of each dependency.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
