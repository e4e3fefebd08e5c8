package errors

import (
	"context"
	stderrs "errors"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouse server exception codes the observations store can hit
const (
	chTypeMismatch       int32 = 53
	chUnknownTable       int32 = 60
	chSyntaxError        int32 = 62
	chUnknownDatabase    int32 = 81
	chTimeoutExceeded    int32 = 159
	chTooManyQueries     int32 = 202
	chSocketTimeout      int32 = 209
	chNetworkError       int32 = 210
	chMemoryLimit        int32 = 241
	chTableReadOnly      int32 = 242
	chTooManyParts       int32 = 252
	chAuthFailed         int32 = 516
	chCannotParseNumber  int32 = 72
	chCannotParseInput   int32 = 27
	chIllegalColumnValue int32 = 44
)

// CHException returns the server exception in err's chain
func CHException(err error) (*clickhouse.Exception, bool) {
	var ex *clickhouse.Exception
	if stderrs.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// CHCode classifies a clickhouse exception; ok is false for anything else
func CHCode(err error) (ErrorCode, bool) {
	ex, ok := CHException(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch ex.Code {
	case chTypeMismatch, chCannotParseNumber, chCannotParseInput, chIllegalColumnValue:
		return ErrorCodeInvalidArgument, true
	case chTimeoutExceeded, chSocketTimeout:
		return ErrorCodeTimeout, true
	case chUnknownTable, chUnknownDatabase, chTooManyQueries, chNetworkError,
		chMemoryLimit, chTableReadOnly, chTooManyParts, chAuthFailed:
		return ErrorCodeUnavailable, true
	default:
		return ErrorCodeDB, true
	}
}

// FromClickhouse classifies err and wraps it with msg
func FromClickhouse(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := CHCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// IsCHRetryable reports clickhouse overload or timeouts
func IsCHRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) {
		return false
	}
	ex, ok := CHException(err)
	if !ok {
		return false
	}
	switch ex.Code {
	case chTimeoutExceeded, chTooManyQueries, chSocketTimeout, chNetworkError, chTooManyParts:
		return true
	}
	return false
}
