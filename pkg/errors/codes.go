package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are "<MODULE>_<NNN>"; the module prefix is recoverable via ModuleForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Aliases used at call sites that predate the ErrCode* naming.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")

	CodeCacheError        = ErrCodeCacheError
	CodeStorageError      = ErrCodeExternalService
	CodeMessageQueueError = ErrCodeExternalService
)

// Structure Module Error Codes
const (
	ErrCodeStructureNotFound     ErrorCode = "STR_001"
	ErrCodeStructureParseFailed  ErrorCode = "STR_002"
	ErrCodeStructureEmpty        ErrorCode = "STR_003"
	ErrCodeStructureSourceFailed ErrorCode = "STR_004"
	ErrCodeStructurePathRequired ErrorCode = "STR_005"
	ErrCodeResidueKeyInvalid     ErrorCode = "STR_006"
)

// Viewer Module Error Codes
const (
	ErrCodeRegionNotFound        ErrorCode = "VWR_001"
	ErrCodeColorInvalid          ErrorCode = "VWR_002"
	ErrCodeStyleInvalid          ErrorCode = "VWR_003"
	ErrCodeSchemeInvalid         ErrorCode = "VWR_004"
	ErrCodeRepresentationInvalid ErrorCode = "VWR_005"
	ErrCodeNoActiveStructure     ErrorCode = "VWR_006"
	ErrCodeBackendFailed         ErrorCode = "VWR_007"
	ErrCodePointerEventInvalid   ErrorCode = "VWR_008"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeStructureNotFound:     http.StatusNotFound,
	ErrCodeStructureParseFailed:  http.StatusUnprocessableEntity,
	ErrCodeStructureEmpty:        http.StatusUnprocessableEntity,
	ErrCodeStructureSourceFailed: http.StatusBadGateway,
	ErrCodeStructurePathRequired: http.StatusBadRequest,
	ErrCodeResidueKeyInvalid:     http.StatusBadRequest,

	ErrCodeRegionNotFound:        http.StatusNotFound,
	ErrCodeColorInvalid:          http.StatusBadRequest,
	ErrCodeStyleInvalid:          http.StatusBadRequest,
	ErrCodeSchemeInvalid:         http.StatusBadRequest,
	ErrCodeRepresentationInvalid: http.StatusBadRequest,
	ErrCodeNoActiveStructure:     http.StatusConflict,
	ErrCodeBackendFailed:         http.StatusBadGateway,
	ErrCodePointerEventInvalid:   http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",

	ErrCodeStructureNotFound:     "structure not found",
	ErrCodeStructureParseFailed:  "failed to parse structure",
	ErrCodeStructureEmpty:        "structure contains no atoms",
	ErrCodeStructureSourceFailed: "failed to fetch structure source",
	ErrCodeStructurePathRequired: "pdb_path required",
	ErrCodeResidueKeyInvalid:     "invalid residue key",

	ErrCodeRegionNotFound:        "region not found",
	ErrCodeColorInvalid:          "invalid color",
	ErrCodeStyleInvalid:          "invalid style",
	ErrCodeSchemeInvalid:         "invalid color scheme",
	ErrCodeRepresentationInvalid: "invalid representation kind",
	ErrCodeNoActiveStructure:     "no active structure",
	ErrCodeBackendFailed:         "rendering backend call failed",
	ErrCodePointerEventInvalid:   "invalid pointer event",
}

// HTTPStatusForCode returns the HTTP status for an ErrorCode, defaulting to 500.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
