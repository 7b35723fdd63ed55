package utilities

import (
	"encoding/json"
	"net/http"

	"google.golang.org/grpc/codes"
)

// errorResponse is the error envelope returned by every failed request.
// The status field carries the canonical code name so clients can switch
// on a stable kind rather than parsing messages.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RespondJSON writes v as a JSON response with the given HTTP status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes the error envelope for the given status code and
// message.
func RespondError(w http.ResponseWriter, code codes.Code, message string) {
	RespondJSON(w, HTTPStatusFromCode(code), errorResponse{
		Error: errorBody{
			Status:  StatusName(code),
			Message: message,
		},
	})
}

// HTTPStatusFromCode maps a status code to its HTTP equivalent.
func HTTPStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// StatusName returns the canonical SCREAMING_SNAKE_CASE name of a status
// code as used on the wire.
func StatusName(code codes.Code) string {
	switch code {
	case codes.OK:
		return "OK"
	case codes.Canceled:
		return "CANCELLED"
	case codes.InvalidArgument:
		return "INVALID_ARGUMENT"
	case codes.DeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case codes.NotFound:
		return "NOT_FOUND"
	case codes.AlreadyExists:
		return "ALREADY_EXISTS"
	case codes.PermissionDenied:
		return "PERMISSION_DENIED"
	case codes.ResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case codes.FailedPrecondition:
		return "FAILED_PRECONDITION"
	case codes.Aborted:
		return "ABORTED"
	case codes.OutOfRange:
		return "OUT_OF_RANGE"
	case codes.Unimplemented:
		return "UNIMPLEMENTED"
	case codes.Unavailable:
		return "UNAVAILABLE"
	case codes.DataLoss:
		return "DATA_LOSS"
	case codes.Unauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL"
	}
}
