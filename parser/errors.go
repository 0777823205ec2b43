package parser

import (
	"fmt"

	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// ErrorKind categorizes the type of error, kept for parity with the
// wider codebase's style of typed, enumerated error kinds.
type ErrorKind int

const (
	ErrorSyntax ErrorKind = iota
	ErrorUnknownDirective
	ErrorUnknownInstruction
	ErrorBadToken
	ErrorUnterminatedString
	ErrorUnmatchedBracket
	ErrorDuplicateAnchor
	ErrorUnexpectedEOF
	ErrorInclude
)

// Error is a parse error carrying the source position it occurred at.
type Error struct {
	Pos     srcpos.Position
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func newError(pos srcpos.Position, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
