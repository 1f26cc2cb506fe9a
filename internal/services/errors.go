// Package services provides the business logic layer between handlers and
// the node/cache subsystems. Expected absence is a coded result, never a
// thrown error, and gossip client internals never leak past this layer.
package services

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// Error codes returned by the node service
const (
	CodeNodeNotFound  = "NODE_NOT_FOUND"
	CodeStatsNotFound = "STATS_NOT_FOUND"
)
