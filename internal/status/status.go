// Package status defines the closed outcome-code enumeration shared across
// the value, model, registry, and IPC layers, plus the contextual
// classifiers that tell a caller whether a given code is an error, a
// determined result, or a success in a particular call context.
package status

import "fmt"

// Code is a closed enumeration of outcome codes. Numbering is stable across
// releases: new codes are appended at the end, never inserted, and highest
// moves to the new last code.
type Code uint16

const (
	Success Code = iota
	NoErrorYet
	InternalError
	NotImplemented
	UnknownDeviceCollection
	UnknownDevice
	DeviceAlreadyExists
	DeviceDescriptionInaccessible
	DeviceDescriptionParseError
	DeviceModelInaccessible
	DeviceModelParseError
	UnknownInclude
	AmbiguousBasePath
	UnknownParameterID
	ParameterAlreadyProvided
	ParameterValueUnavailable
	ParameterNotProvided
	UnknownParameterPath
	UnknownClassInstancePath
	NotAMethod
	WrongArgumentCount
	CouldNotSetParameter
	MissingArgument
	WrongOutArgumentCount
	WrongValueType
	WrongValueRepresentation
	CouldNotInvokeMethod
	ProviderNotOperational
	MonitoringListMaxExceeded
	UnknownMonitoringList
	WrongValuePattern
	ParameterNotWriteable
	ValueNotPossible
	WDMMVersionNotSupported
	InvalidDeviceCollection
	InvalidDeviceSlot
	ValueNull
	UnknownFileID
	FileNotAccessible
	InvalidValue
	FileSizeExceeded
	OtherInvalidValueInSet
	Ignored
	WDAConnectionChangesDeferred
	MethodsDoNotHaveValue
	NotAFileID
	FileIDMismatch
	LogicError
	UploadIDMaxExceeded
	StatusValueUnavailable
	UnknownEnumName
	UnknownFeatureName
	FeatureNotAvailable
	InstanceKeyNotWriteable
	MissingParameterForInstantiation
	NotExistingForInstance
	SuccessButValueAdjusted
	Unauthorized
	OtherUnauthorizedRequestInSet

	highest = OtherUnauthorizedRequestInSet
)

var codeNames = [...]string{
	"SUCCESS",
	"NO_ERROR_YET",
	"INTERNAL_ERROR",
	"NOT_IMPLEMENTED",
	"UNKNOWN_DEVICE_COLLECTION",
	"UNKNOWN_DEVICE",
	"DEVICE_ALREADY_EXISTS",
	"DEVICE_DESCRIPTION_INACCESSIBLE",
	"DEVICE_DESCRIPTION_PARSE_ERROR",
	"DEVICE_MODEL_INACCESSIBLE",
	"DEVICE_MODEL_PARSE_ERROR",
	"UNKNOWN_INCLUDE",
	"AMBIGUOUS_BASE_PATH",
	"UNKNOWN_PARAMETER_ID",
	"PARAMETER_ALREADY_PROVIDED",
	"PARAMETER_VALUE_UNAVAILABLE",
	"PARAMETER_NOT_PROVIDED",
	"UNKNOWN_PARAMETER_PATH",
	"UNKNOWN_CLASS_INSTANCE_PATH",
	"NOT_A_METHOD",
	"WRONG_ARGUMENT_COUNT",
	"COULD_NOT_SET_PARAMETER",
	"MISSING_ARGUMENT",
	"WRONG_OUT_ARGUMENT_COUNT",
	"WRONG_VALUE_TYPE",
	"WRONG_VALUE_REPRESENTATION",
	"COULD_NOT_INVOKE_METHOD",
	"PROVIDER_NOT_OPERATIONAL",
	"MONITORING_LIST_MAX_EXCEEDED",
	"UNKNOWN_MONITORING_LIST",
	"WRONG_VALUE_PATTERN",
	"PARAMETER_NOT_WRITEABLE",
	"VALUE_NOT_POSSIBLE",
	"WDMM_VERSION_NOT_SUPPORTED",
	"INVALID_DEVICE_COLLECTION",
	"INVALID_DEVICE_SLOT",
	"VALUE_NULL",
	"UNKNOWN_FILE_ID",
	"FILE_NOT_ACCESSIBLE",
	"INVALID_VALUE",
	"FILE_SIZE_EXCEEDED",
	"OTHER_INVALID_VALUE_IN_SET",
	"IGNORED",
	"WDA_CONNECTION_CHANGES_DEFERRED",
	"METHODS_DO_NOT_HAVE_VALUE",
	"NOT_A_FILE_ID",
	"FILE_ID_MISMATCH",
	"LOGIC_ERROR",
	"UPLOAD_ID_MAX_EXCEEDED",
	"STATUS_VALUE_UNAVAILABLE",
	"UNKNOWN_ENUM_NAME",
	"UNKNOWN_FEATURE_NAME",
	"FEATURE_NOT_AVAILABLE",
	"INSTANCE_KEY_NOT_WRITEABLE",
	"MISSING_PARAMETER_FOR_INSTANTIATION",
	"NOT_EXISTING_FOR_INSTANCE",
	"SUCCESS_BUT_VALUE_ADJUSTED",
	"UNAUTHORIZED",
	"OTHER_UNAUTHORIZED_REQUEST_IN_SET",
}

// Context selects which call-site rules apply when classifying a code.
type Context int

const (
	General Context = iota
	ParameterRead
	ParameterWrite
)

// String returns the stable uppercase name of the code, or a numeric
// fallback for a value outside the known range.
func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("UNKNOWN_STATUS_CODE(%d)", uint16(c))
}

// FromString is the inverse of String; an unrecognized name yields NoErrorYet,
// mirroring the reference implementation's "not yet determined" fallback.
func FromString(s string) Code {
	for i, name := range codeNames {
		if name == s {
			return Code(i)
		}
	}
	return NoErrorYet
}

// HasError reports whether code counts as an error in the given context.
func HasError(c Code, ctx Context) bool {
	switch ctx {
	case ParameterRead:
		return c != NoErrorYet && c != Success && c != StatusValueUnavailable
	case ParameterWrite:
		return c != NoErrorYet && c != Success &&
			c != WDAConnectionChangesDeferred && c != SuccessButValueAdjusted
	default:
		return c != NoErrorYet && c != Success
	}
}

// IsDetermined reports whether code represents a final outcome.
func IsDetermined(c Code) bool {
	return c != NoErrorYet
}

// IsSuccess reports whether code represents a successful outcome in context.
func IsSuccess(c Code, ctx Context) bool {
	return c == Success || (c == SuccessButValueAdjusted && ctx == ParameterWrite)
}

// Error pairs a status code with an optional provider-specific sub-code and
// a free-form message. It implements the error interface so provider-runtime
// failures can be surfaced verbatim through ordinary Go error returns.
type Error struct {
	Code    Code
	SubCode uint16
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	if e.SubCode != 0 {
		return fmt.Sprintf("%s (sub-code %d): %s", e.Code, e.SubCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a status error with no sub-code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a status error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSubCode attaches a provider-specific sub-code to a status error.
func WithSubCode(code Code, subCode uint16, message string) *Error {
	return &Error{Code: code, SubCode: subCode, Message: message}
}
