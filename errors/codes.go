package errors

// ErrorCode is the stable, client-facing error identifier
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006
	ErrorCode_CONFLICT          ErrorCode = 1007
	ErrorCode_UNAVAILABLE       ErrorCode = 1008

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2001
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2002

	// Videos
	ErrorCode_VIDEO_NOT_FOUND     ErrorCode = 3001
	ErrorCode_VIDEO_UPLOAD_FAILED ErrorCode = 3002

	// Translation jobs
	ErrorCode_JOB_NOT_FOUND          ErrorCode = 4001
	ErrorCode_JOB_INVALID_TRANSITION ErrorCode = 4002
	ErrorCode_JOB_STALE_STATE        ErrorCode = 4003
	ErrorCode_JOB_ALREADY_RUNNING    ErrorCode = 4004
	ErrorCode_JOB_NOT_RUNNING        ErrorCode = 4005
	ErrorCode_JOB_NOT_EDITABLE       ErrorCode = 4006
	ErrorCode_SPEAKER_NOT_FOUND      ErrorCode = 4007
	ErrorCode_SPEAKER_LABEL_TAKEN    ErrorCode = 4008

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 5001
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_CONFLICT:                   "CONFLICT",
	ErrorCode_UNAVAILABLE:                "UNAVAILABLE",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_VIDEO_NOT_FOUND:            "VIDEO_NOT_FOUND",
	ErrorCode_VIDEO_UPLOAD_FAILED:        "VIDEO_UPLOAD_FAILED",
	ErrorCode_JOB_NOT_FOUND:              "JOB_NOT_FOUND",
	ErrorCode_JOB_INVALID_TRANSITION:     "JOB_INVALID_TRANSITION",
	ErrorCode_JOB_STALE_STATE:            "JOB_STALE_STATE",
	ErrorCode_JOB_ALREADY_RUNNING:        "JOB_ALREADY_RUNNING",
	ErrorCode_JOB_NOT_RUNNING:            "JOB_NOT_RUNNING",
	ErrorCode_JOB_NOT_EDITABLE:           "JOB_NOT_EDITABLE",
	ErrorCode_SPEAKER_NOT_FOUND:          "SPEAKER_NOT_FOUND",
	ErrorCode_SPEAKER_LABEL_TAKEN:        "SPEAKER_LABEL_TAKEN",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
