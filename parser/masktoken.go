package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/lookbusy1344/thumbpatch/mask"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// maskBuilder accumulates one mask's literal/skip parts and its anchor
// offset across possibly several source lines, until a "{" token opens
// the block body. Grounded on original_source/libpatcher/parser.py's
// parseBlock mask-reading loop.
type maskBuilder struct {
	parts      []mask.Part
	literal    bytes.Buffer
	skip       int
	offset     int
	sawAnchor  bool
	startedPos srcpos.Position
	started    bool
}

func (mb *maskBuilder) flushLiteral() {
	if mb.literal.Len() == 0 {
		return
	}
	mb.parts = append(mb.parts, mask.Literal(append([]byte(nil), mb.literal.Bytes()...)))
	mb.literal.Reset()
}

func (mb *maskBuilder) flushSkip() {
	if mb.skip == 0 {
		return
	}
	mb.parts = append(mb.parts, mask.Skip(mb.skip))
	mb.skip = 0
}

func (mb *maskBuilder) accumulatedBytes() int {
	total := 0
	for _, p := range mb.parts {
		if p.Literal != nil {
			total += len(p.Literal)
		} else {
			total += p.Skip
		}
	}
	return total
}

func (mb *maskBuilder) empty() bool {
	return len(mb.parts) == 0 && mb.literal.Len() == 0 && mb.skip == 0
}

// scanMaskLine processes one line of mask tokens. It returns the
// left-over text on the same line once a "{" token opens the block
// body (enteredBlock == true), or an error.
func scanMaskLine(mb *maskBuilder, line string, pos srcpos.Position) (remainder string, enteredBlock bool, err error) {
	segments := strings.Split(line, `"`)
	if len(segments)%2 == 0 {
		return "", false, newError(pos, ErrorUnterminatedString, "unterminated string in mask")
	}
	if !mb.started {
		mb.startedPos = pos
		mb.started = true
	}
	isStr := false
	for segIdx, seg := range segments {
		if isStr {
			mb.flushSkip()
			mb.literal.WriteString(seg)
			isStr = !isStr
			continue
		}
		for _, t := range strings.Fields(seg) {
			switch {
			case len(t) == 2 && isHexPair(t):
				mb.flushSkip()
				b, perr := strconv.ParseUint(t, 16, 8)
				if perr != nil {
					return "", false, newError(pos, ErrorBadToken, "bad mask token: %s", t)
				}
				mb.literal.WriteByte(byte(b))
			case strings.HasPrefix(t, "?"):
				count := 1
				if len(t) > 1 {
					n, perr := strconv.Atoi(t[1:])
					if perr != nil {
						return "", false, newError(pos, ErrorBadToken, "bad mask token: %s", t)
					}
					count = n
				}
				mb.flushLiteral()
				mb.skip += count
			case t == "@":
				if mb.sawAnchor {
					return "", false, newError(pos, ErrorDuplicateAnchor, "duplicate '@' in mask")
				}
				mb.sawAnchor = true
				mb.offset = mb.accumulatedBytes() + mb.literal.Len() + mb.skip
			case t == "{":
				mb.flushLiteral()
				mb.flushSkip()
				return strings.Join(segments[segIdx+1:], `"`), true, nil
			default:
				return "", false, newError(pos, ErrorBadToken, "bad mask token: %s", t)
			}
		}
		isStr = !isStr
	}
	return "", false, nil
}

func isHexPair(t string) bool {
	for _, c := range t {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
