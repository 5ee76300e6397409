package stego

import (
	"errors"
	"strings"
)

// Kind categorizes a stego failure
type Kind string

const (
	KindFileOpen Kind = "file_open" // path unreadable or unwritable
	KindFormat   Kind = "format"    // wrong file type, magic or extension mismatch
	KindCapacity Kind = "capacity"  // carrier too small for the record
	KindIO       Kind = "io"        // short read or write
)

// Stage names the protocol step that failed
type Stage string

const (
	StageOpen          Stage = "open"
	StageValidate      Stage = "validate"
	StageCapacity      Stage = "capacity"
	StageHeader        Stage = "header"
	StageMagic         Stage = "magic"
	StageExtensionSize Stage = "extension size"
	StageExtension     Stage = "extension"
	StagePayloadSize   Stage = "payload size"
	StagePayload       Stage = "payload"
	StageRemainder     Stage = "remainder"
	StageClose         Stage = "close"
)

// Sentinels for errors.Is; any *StageError of the same kind matches.
var (
	ErrFileOpen = &StageError{Kind: KindFileOpen}
	ErrFormat   = &StageError{Kind: KindFormat}
	ErrCapacity = &StageError{Kind: KindCapacity}
	ErrIO       = &StageError{Kind: KindIO}
)

// StageError reports which protocol stage failed and why
type StageError struct {
	Cause  error
	Stage  Stage
	Kind   Kind
	Detail string
}

func (e *StageError) Error() string {
	var b strings.Builder

	if e.Stage != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Stage))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is matches on Kind only so callers can test against the sentinels.
func (e *StageError) Is(target error) bool {
	if t, ok := target.(*StageError); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, detail string, cause error) *StageError {
	return &StageError{Kind: kind, Detail: detail, Cause: cause}
}

func formatError(detail string) *StageError {
	return newError(KindFormat, detail, nil)
}

func ioError(detail string, cause error) *StageError {
	return newError(KindIO, detail, cause)
}

// atStage stamps the stage on err, converting foreign errors into IO errors.
func atStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		if se.Stage == "" {
			se.Stage = stage
		}
		return se
	}
	return &StageError{Stage: stage, Kind: KindIO, Cause: err}
}

// KindOf returns the kind of err, or "" when err is not a stego error.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// StageOf returns the stage at which err occurred, or "".
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
