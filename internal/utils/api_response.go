package utils

// SuccessResponse wraps every 2xx body as {"success": true, "data": ...}.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse carries a stable machine-readable code next to the message.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: message}}
}

func CreateSuccessResponse(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}
