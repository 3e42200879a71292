package model

// CreatePagesResponse is the envelope returned by the create-pages endpoint.
// Partial failures are tolerated: successfully created pages are returned
// alongside per-item errors.
type CreatePagesResponse struct {
	Success bool          `json:"success"`
	Pages   []CreatedPage `json:"pages"`
	Errors  []string      `json:"errors"`
}

// TokenResponse is the envelope returned by the token issuance endpoint.
type TokenResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	ExpiresAt string `json:"expires_at"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}
