package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes surfaced by stores and handlers
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidPrice    = "INVALID_PRICE"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeSessionExpired  = "SESSION_EXPIRED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// DomainError carries a stable error code alongside a human-readable message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidPrice     = NewDomainError(ErrCodeInvalidPrice, "Price must be zero or greater")
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrNotAuthenticated = NewDomainError(ErrCodeUnauthorised, "No customer session is active")
	ErrSessionExpired   = NewDomainError(ErrCodeSessionExpired, "The customer session is no longer valid")
)
