package serverutils

type ErrorBody struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func ErrorResponse(code int, message string) *ErrorBody {
	return &ErrorBody{Code: code, Message: message}
}
