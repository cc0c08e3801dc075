package errors

// ErrorResponse is the JSON body the status server sends for a failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client-facing part of an AppError. Causes stay in logs.
type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	// PerItem marks failures that only affected one input of a run.
	PerItem bool           `json:"per_item,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse builds the response body for e.
func (e *AppError) ToResponse() ErrorResponse {
	body := ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		PerItem:   IsItemCode(e.Code),
	}
	if len(e.Details) > 0 {
		body.Details = e.Details
	}
	return ErrorResponse{Error: body}
}
