// Package errs provides the coded error used for the bridge's sentinels.
package errs

import (
	"fmt"
	"runtime"
	"strings"
)

// Coded error of the bridge.
//
// Errors sharing the same non-empty code match each other with errors.Is, so a sentinel can be
// decorated with WithDetailf or Wrap and still be checked against the original.
type BridgeErr struct {
	code   string
	msg    string
	detail string // e.g., name of the pool.
	cause  error
	stack  string // where Wrap was called.
}

// Create error without code.
func NewErrf(msg string, args ...any) *BridgeErr {
	return &BridgeErr{msg: sprintf(msg, args...)}
}

// Create a sentinel error with code.
func NewErrfCode(code string, msg string, args ...any) *BridgeErr {
	return &BridgeErr{code: code, msg: sprintf(msg, args...)}
}

// Wrap err with message, returns nil if err is nil.
func WrapErrf(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	return &BridgeErr{msg: sprintf(msg, args...), cause: err}
}

// Copy of e carrying the given detail.
func (e *BridgeErr) WithDetailf(detail string, args ...any) *BridgeErr {
	n := *e
	n.detail = sprintf(detail, args...)
	return &n
}

// Copy of e caused by cause, with the caller's stack recorded.
//
// Returns nil if cause is nil.
func (e *BridgeErr) Wrap(cause error) error {
	if cause == nil {
		return nil
	}
	n := *e
	n.cause = cause
	n.stack = callerStack(3)
	return &n
}

// Stack recorded by Wrap, empty if e wasn't created by Wrap.
func (e *BridgeErr) Stack() string {
	return e.stack
}

func (e *BridgeErr) Error() string {
	tok := make([]string, 0, 3)
	for _, s := range []string{e.msg, e.detail} {
		if s != "" {
			tok = append(tok, s)
		}
	}
	if e.cause != nil {
		tok = append(tok, e.cause.Error())
	}
	return strings.Join(tok, ", ")
}

// Match target if both are *BridgeErr with the same non-empty code.
func (e *BridgeErr) Is(target error) bool {
	t, ok := target.(*BridgeErr)
	return ok && e.code != "" && e.code == t.code
}

func (e *BridgeErr) Unwrap() error {
	return e.cause
}

func sprintf(msg string, args ...any) string {
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func callerStack(skip int) string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip, pc)
	frames := runtime.CallersFrames(pc[:n])
	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "\n\t%v\n\t\t%v:%v", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}
