package web

import "net/http"

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError формирует стандартный JSON с кодом и сообщением об ошибке.
func writeError(w http.ResponseWriter, status int, code ErrorResponseErrorCode, message string) {
	resp := errorResponse{
		Error: errorBody{
			Code:    string(code),
			Message: message,
		},
	}
	writeJSON(w, status, resp)
}

// Возможные значения кода ошибки.
const (
	NOTFOUND          ErrorResponseErrorCode = "NOT_FOUND"
	NOPULLREQUESTS    ErrorResponseErrorCode = "NO_PULL_REQUESTS"
	UNSUPPORTEDACTION ErrorResponseErrorCode = "UNSUPPORTED_ACTION"
	INVALIDREQUEST    ErrorResponseErrorCode = "INVALID_REQUEST"
	INVALIDPRURL      ErrorResponseErrorCode = "INVALID_PR_URL"
	TRANSPORTERROR    ErrorResponseErrorCode = "TRANSPORT_ERROR"
	MISSINGCONFIG     ErrorResponseErrorCode = "MISSING_CONFIG"
	INTERNALERROR     ErrorResponseErrorCode = "INTERNAL_ERROR"
	UNAUTHORIZED      ErrorResponseErrorCode = "UNAUTHORIZED"
	INVALIDPAYLOAD    ErrorResponseErrorCode = "INVALID_PAYLOAD"
)

// ErrorResponseErrorCode описывает код ошибки в ответе.
type ErrorResponseErrorCode string
