package apierr

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// kindToCode maps the stable Kind taxonomy onto gRPC status codes for
// transports that want to speak gRPC error conventions even though the
// frontend boundary's own wire format (§6) is transport-agnostic JSON.
var kindToCode = map[Kind]codes.Code{
	KindNotFound:           codes.NotFound,
	KindConflict:           codes.AlreadyExists,
	KindInvalidArgument:    codes.InvalidArgument,
	KindCycleDetected:      codes.FailedPrecondition,
	KindDependenciesExist:  codes.FailedPrecondition,
	KindBackpressure:       codes.ResourceExhausted,
	KindTimeout:            codes.DeadlineExceeded,
	KindIntegrityViolation: codes.DataLoss,
	KindPersistenceFailure: codes.Unavailable,
	KindCircuitOpen:        codes.Unavailable,
	KindUnauthorized:       codes.PermissionDenied,
	KindInternal:           codes.Internal,
}

// ToStatus converts err into a gRPC status error with an ErrorInfo detail,
// mapping unrecognized errors through Map first.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	apiErr := Map(err)
	code, ok := kindToCode[apiErr.Kind]
	if !ok {
		code = codes.Internal
	}

	st := status.New(code, apiErr.Message)
	info := &errdetails.ErrorInfo{
		Reason: string(apiErr.Kind),
		Domain: "acs",
		Metadata: map[string]string{
			"kind": string(apiErr.Kind),
		},
	}
	if apiErr.cause != nil {
		info.Metadata["cause"] = apiErr.cause.Error()
	}
	for k, v := range apiErr.Details {
		info.Metadata[k] = v
	}

	withDetails, detailErr := st.WithDetails(info)
	if detailErr != nil {
		return status.Error(code, apiErr.Message)
	}
	return withDetails.Err()
}

// NewValidationStatus builds an InvalidArgument status with per-field
// violations, for request-shape errors caught before a domain error exists.
func NewValidationStatus(message string, fieldViolations map[string]string) error {
	st := status.New(codes.InvalidArgument, message)

	br := &errdetails.BadRequest{}
	for field, desc := range fieldViolations {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: desc,
		})
	}

	withDetails, err := st.WithDetails(br)
	if err != nil {
		return status.Error(codes.InvalidArgument, message)
	}
	return withDetails.Err()
}

// Wrapf wraps err with additional context while preserving its Kind, so
// intermediate layers can annotate an error without losing its taxonomy.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	apiErr := Map(err)
	return New(apiErr.Kind, fmt.Sprintf(format, args...), apiErr)
}
