package response

// Response is the envelope every API handler returns. Ok mirrors the HTTP
// outcome so clients can branch without inspecting the code.
type Response struct {
	Ok      bool        `json:"ok"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Success wraps data in a positive envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Ok:   true,
		Code: statusCode,
		Data: data,
	}
}

// Error wraps an error message in a negative envelope.
func Error(statusCode int, msg string) Response {
	return Response{
		Code:    statusCode,
		Message: msg,
	}
}
