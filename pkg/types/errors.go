package types

import "fmt"

// Error code constants for agent-facing errors.
const (
	ErrCodeConfigError           = "CONFIG_ERROR"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeDispatchError         = "DISPATCH_ERROR"
	ErrCodeDispatchLimitReached  = "DISPATCH_LIMIT_REACHED"
	ErrCodeControllerUnavailable = "CONTROLLER_UNAVAILABLE"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// MCPError represents a structured error returned to AI agents.
type MCPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Tool    string `json:"tool"`
	Detail  string `json:"detail,omitempty"`
}

func (e *MCPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", e.Code, e.Tool, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Tool, e.Message)
}
