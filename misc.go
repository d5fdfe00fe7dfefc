package lms

import (
	"fmt"
	goLog "log"
)

// Encodes the given uint64 into the buffer out in Big Endian
func encodeUint64Into(x uint64, out []byte) {
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = byte(x)
		x >>= 8
	}
}

// Encodes the given uint64 as [outLen]byte in Big Endian.
func encodeUint64(x uint64, outLen int) []byte {
	ret := make([]byte, outLen)
	encodeUint64Into(x, ret)
	return ret
}

// Interpret []byte as Big Endian int.
func decodeUint64(in []byte) (ret uint64) {
	for i := 0; i < len(in); i++ {
		ret |= uint64(in[i]) << uint64(8*(len(in)-1-i))
	}
	return
}

// Reads the big endian uint32 at the start of in.  in must be at least
// four bytes long.
func decodeUint32(in []byte) uint32 {
	return uint32(decodeUint64(in[:4]))
}

// Overwrites buf with zeroes.
func zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// Category of a verification failure.  The codes are diagnostics: callers
// should treat any non-nil error as "not authenticated".
//
// An ErrorCode is itself an error, so errors.Is(err, ErrNodeOutOfRange)
// can be used to test for a particular failure.
type ErrorCode uint8

const (
	ErrInvalidParam ErrorCode = iota + 1
	ErrUnsupportedType
	ErrLengthMismatch
	ErrTypeMismatch
	ErrNodeOutOfRange
	ErrAuthenticationFailed
	ErrGlitchDetected
	ErrEngineFailure
	ErrSignLevelUnsupported
)

var errorCodeNames = map[ErrorCode]string{
	ErrInvalidParam:         "invalid parameter",
	ErrUnsupportedType:      "unsupported type",
	ErrLengthMismatch:       "length mismatch",
	ErrTypeMismatch:         "type mismatch",
	ErrNodeOutOfRange:       "node out of range",
	ErrAuthenticationFailed: "authentication failed",
	ErrGlitchDetected:       "glitch detected",
	ErrEngineFailure:        "hash engine failure",
	ErrSignLevelUnsupported: "signature level unsupported",
}

func (code ErrorCode) Error() string {
	name, ok := errorCodeNames[code]
	if !ok {
		return fmt.Sprintf("lms error %d", uint8(code))
	}
	return name
}

type Error interface {
	error
	Code() ErrorCode // Category of the failure
	Locked() bool    // Is this error because something (like a file) was locked?
	Inner() error    // Returns the wrapped error, if any
}

type errorImpl struct {
	code   ErrorCode
	msg    string
	locked bool
	inner  error
}

func (err *errorImpl) Code() ErrorCode { return err.code }
func (err *errorImpl) Locked() bool    { return err.locked }
func (err *errorImpl) Inner() error    { return err.inner }
func (err *errorImpl) Unwrap() error   { return err.inner }

// Makes errors.Is(err, code) work for every ErrorCode.
func (err *errorImpl) Is(target error) bool {
	code, ok := target.(ErrorCode)
	return ok && code == err.code
}

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s: %s", err.code, err.msg, err.inner.Error())
	}
	return fmt.Sprintf("%s: %s", err.code, err.msg)
}

// Formats a new Error
func errorf(code ErrorCode, format string, a ...interface{}) *errorImpl {
	return &errorImpl{code: code, msg: fmt.Sprintf(format, a...)}
}

// Formats a new Error that wraps another
func wrapErrorf(code ErrorCode, err error, format string,
	a ...interface{}) *errorImpl {
	return &errorImpl{code: code, msg: fmt.Sprintf(format, a...), inner: err}
}

// Returns the ErrorCode of err, or 0 if err is nil or not one of ours.
func CodeOf(err error) ErrorCode {
	switch e := err.(type) {
	case nil:
		return 0
	case ErrorCode:
		return e
	case Error:
		return e.Code()
	}
	return 0
}

type dummyLogger struct{}
type stdlibLogger struct{}

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

type Logger interface {
	Logf(format string, a ...interface{})
}

// Enables logging to log package.  For more flexibility, see SetLogger().
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// Enables logging.  Disable logging by passing nil.
//
// Use EnableLogging if you want to log to the log package.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
