package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) file() string {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknownFile"
	}
	f, _ := fn.FileLine(pc)
	return f
}

func (frame Frame) line() int {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return 0
	}
	_, l := fn.FileLine(pc)
	return l
}

func (frame Frame) name() string {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// Format characters:
// %s - source file
// %d - source line
// %n - function name
// %v - verbose, equivalent to %s:%d
// %+s - full path, the root path is relative to the compile time GOPATH
// separated by \n\t (<function-name>\n\t<path>)
// %+v - equivalent to %+s:%d
func (frame Frame) Format(s fmt.State, verb rune) {
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, frame.name())
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, frame.file())
		} else {
			_, _ = io.WriteString(s, path.Base(frame.file()))
		}
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(frame.line()))
	case 'n':
		_, _ = io.WriteString(s, funcName(frame.name()))
	case 'v':
		frame.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		frame.Format(s, 'd')
	}
}

// MarshalText and MarshalJSON render a frame as "<func> <file>:<line>" and as
// {"file","func","line"}; an unresolvable frame becomes "unknownFrame" / {"frame":"unknownFrame"}.
func (frame Frame) MarshalText() ([]byte, error) {
	if runtime.FuncForPC(frame.pc()) == nil {
		return []byte("unknownFrame"), nil
	}
	return []byte(fmt.Sprintf("%s %s:%d", frame.name(), frame.file(), frame.line())), nil
}
func (frame Frame) MarshalJSON() ([]byte, error) {
	if runtime.FuncForPC(frame.pc()) == nil {
		return []byte(`{"frame":"unknownFrame"}`), nil
	}
	return json.Marshal(map[string]any{"func": frame.name(), "file": frame.file(), "line": frame.line()})
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

// ErrorStack is an error that carries the call stack of the site that
// created it. It implements zapcore.ObjectMarshaler so it can be logged
// with zap.Inline without re-walking the stack at log time.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() error
	Frames() []Frame
}

type errorStack struct {
	msg    string
	cause  error
	frames []Frame
}

const errStackDepth = 32
const errStackSkip = 3

func callers() []Frame {
	pcs := make([]uintptr, errStackDepth)
	n := runtime.Callers(errStackSkip, pcs)
	frames := make([]Frame, n)
	for i := 0; i < n; i++ {
		frames[i] = Frame(pcs[i])
	}
	return frames
}

func (es *errorStack) Error() string {
	if es.cause != nil {
		return es.msg + ": " + es.cause.Error()
	}
	return es.msg
}

func (es *errorStack) Unwrap() error {
	return es.cause
}

func (es *errorStack) Frames() []Frame {
	return es.frames
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", es.msg)
	if es.cause != nil {
		enc.AddString("cause", es.cause.Error())
	}
	return enc.AddArray("stack", zapcore.ArrayMarshalerFunc(func(aenc zapcore.ArrayEncoder) error {
		for _, f := range es.frames {
			aenc.AppendString(fmt.Sprintf("%+v", f))
		}
		return nil
	}))
}

// NewErrorStack builds a fresh error, capturing the current call stack.
func NewErrorStack(msg string) ErrorStack {
	return &errorStack{msg: msg, frames: callers()}
}

// WrapErrorStackWithMessage annotates cause with msg and a new call stack.
// If cause is nil, it behaves like NewErrorStack.
func WrapErrorStackWithMessage(cause error, msg string) ErrorStack {
	return &errorStack{msg: msg, cause: cause, frames: callers()}
}

// AsErrorStack unwraps err looking for an ErrorStack, mirroring errors.As.
func AsErrorStack(err error) (ErrorStack, bool) {
	var es ErrorStack
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}
