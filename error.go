// Package avro reads Apache Avro object container files.
package avro

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/agnivade/levenshtein"
	"go.uber.org/multierr"
)

// A Kind classifies why a reader stopped being usable. Once a reader
// returns an error with a non-Other Kind, the reader is done: every
// subsequent call returns the same failure.
type Kind int

const (
	Other Kind = iota
	NotAnAvroFile
	UnexpectedEOF
	MalformedData
	CorruptSyncMarker
	UnsupportedCodec
	DecompressionFailed
	SchemaErrorKind
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case NotAnAvroFile:
		return "not an avro file"
	case UnexpectedEOF:
		return "unexpected end of file"
	case MalformedData:
		return "malformed data"
	case CorruptSyncMarker:
		return "corrupt sync marker"
	case UnsupportedCodec:
		return "unsupported codec"
	case DecompressionFailed:
		return "decompression failed"
	case SchemaErrorKind:
		return "schema error"
	}
	return "unknown error kind"
}

// SchemaErrorSub refines SchemaErrorKind.
type SchemaErrorSub int

const (
	NoSub SchemaErrorSub = iota
	MissingAttribute
	InvalidAttribute
	UnknownNamedType
	DuplicateNamedType
	InvalidUnion
	InvalidSymbol
)

func (s SchemaErrorSub) String() string {
	switch s {
	case MissingAttribute:
		return "missing attribute"
	case InvalidAttribute:
		return "invalid attribute"
	case UnknownNamedType:
		return "unknown named type"
	case DuplicateNamedType:
		return "duplicate named type"
	case InvalidUnion:
		return "invalid union"
	case InvalidSymbol:
		return "invalid symbol"
	}
	return ""
}

// Error is the concrete error type returned by every exported
// operation in this module. Offset is the byte offset in the source
// stream at which the failure was detected, or -1 if not applicable.
// Path is a schema-tree path (e.g. "record.field[2].union") for
// SchemaErrorKind failures, the source URI for storage lookup
// failures, or empty otherwise.
type Error struct {
	Kind   Kind
	Sub    SchemaErrorSub
	Err    error
	Offset int64
	Path   string
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}

func (e *Error) Error() string {
	b := &bytes.Buffer{}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Sub != NoSub {
		pad(b, ": ")
		b.WriteString(e.Sub.String())
	}
	if e.Path != "" {
		pad(b, ": ")
		fmt.Fprintf(b, "at %s", e.Path)
	}
	if e.Offset >= 0 {
		pad(b, ": ")
		fmt.Fprintf(b, "offset %d", e.Offset)
	}
	if e.Err != nil {
		pad(b, ": ")
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an Error from any mix of a Kind, a SchemaErrorSub, an
// existing error, a byte offset wrapped by Offset, a path wrapped by
// Path, or a final format string with verbs (which must come last,
// mirroring fmt.Errorf including %w support). Any plain string is
// taken as that format string.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args to avro.E")
	}
	e := &Error{Offset: -1}
	for i, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case SchemaErrorSub:
			e.Sub = arg
		case error:
			e.Err = arg
		case offset:
			e.Offset = int64(arg)
		case path:
			e.Path = string(arg)
		case string:
			e.Err = fmt.Errorf(arg, args[i+1:]...)
			return e
		default:
			_, file, line, _ := runtime.Caller(1)
			return fmt.Errorf("unknown type %T value %v in avro.E call at %v:%v", arg, arg, file, line)
		}
	}
	return e
}

type offset int64
type path string

// Offset wraps a byte position for use as an avro.E argument.
func Offset(o int64) offset { return offset(o) }

// Path wraps a schema-tree path for use as an avro.E argument.
func Path(p string) path { return path(p) }

// Combine merges independent validation failures (e.g. several
// duplicate-field errors found while registering one record) into a
// single error without discarding any of them.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// suggestNamedType returns the closest registered fullname to want by
// edit distance, for use in an UnknownNamedType error's hint. Returns
// "" if names is empty.
func suggestNamedType(want string, names []string) string {
	best := ""
	bestDist := -1
	for _, n := range names {
		d := levenshtein.ComputeDistance(want, n)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = n
		}
	}
	return best
}
