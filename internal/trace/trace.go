// Package trace parses and replays plain-text allocation traces against an arena.
//
// A trace is one operation per line:
//
//	# comment
//	add 0x1000 0x4000 [flags]
//	buf = alloc 256 [flags [align]]
//	alloc 64
//	free buf
//	free 0x1100
//	check
//
// A leading "!" marks a step that is expected to fail. Numbers use Go literal
// syntax (0x1000, 4_096).
package trace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/rangekit/ra"
)

// ErrSyntax indicates a malformed trace line.
var ErrSyntax = errors.New("trace: syntax error")

// ErrUnexpected indicates a step whose outcome did not match its expectation.
var ErrUnexpected = errors.New("trace: unexpected result")

// Op is a trace operation.
type Op uint8

const (
	OpAdd Op = iota + 1
	OpAlloc
	OpFree
	OpCheck
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	case OpCheck:
		return "check"
	default:
		return "unknown"
	}
}

// Step is one parsed trace line.
type Step struct {
	Line       int
	Op         Op
	Label      string // alloc: name bound to the result
	Ref        string // free: label or literal base
	Base       uint64 // add
	Size       uint64 // add, alloc
	Flags      ra.Flags
	Align      uint64
	ExpectFail bool
}

// Parse reads a trace.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		st, err := parseLine(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		st.Line = line
		steps = append(steps, st)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func parseLine(f []string) (Step, error) {
	var st Step
	if f[0] == "!" {
		st.ExpectFail = true
		f = f[1:]
	} else if strings.HasPrefix(f[0], "!") {
		st.ExpectFail = true
		f[0] = f[0][1:]
	}
	if len(f) >= 2 && f[1] == "=" {
		st.Label = f[0]
		f = f[2:]
	}
	if len(f) == 0 {
		return st, errors.Wrap(ErrSyntax, "missing operation")
	}

	args := f[1:]
	var err error
	switch f[0] {
	case "add":
		st.Op = OpAdd
		if len(args) < 2 || len(args) > 3 {
			return st, errors.Wrap(ErrSyntax, "add <base> <size> [flags]")
		}
		if st.Base, err = parseUint(args[0], 64); err != nil {
			return st, err
		}
		if st.Size, err = parseUint(args[1], 64); err != nil {
			return st, err
		}
		if len(args) == 3 {
			st.Flags, err = parseFlags(args[2])
		}
	case "alloc":
		st.Op = OpAlloc
		if len(args) < 1 || len(args) > 3 {
			return st, errors.Wrap(ErrSyntax, "alloc <size> [flags [align]]")
		}
		if st.Size, err = parseUint(args[0], 64); err != nil {
			return st, err
		}
		if len(args) >= 2 {
			if st.Flags, err = parseFlags(args[1]); err != nil {
				return st, err
			}
		}
		if len(args) == 3 {
			st.Align, err = parseUint(args[2], 64)
		}
	case "free":
		st.Op = OpFree
		if len(args) != 1 {
			return st, errors.Wrap(ErrSyntax, "free <label|base>")
		}
		st.Ref = args[0]
	case "check":
		st.Op = OpCheck
		if len(args) != 0 {
			return st, errors.Wrap(ErrSyntax, "check takes no arguments")
		}
	default:
		return st, errors.Wrapf(ErrSyntax, "unknown operation %q", f[0])
	}
	if err != nil {
		return st, err
	}
	if st.Label != "" && st.Op != OpAlloc {
		return st, errors.Wrapf(ErrSyntax, "only alloc results can be labelled")
	}
	return st, nil
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "bad number %q", s)
	}
	return v, nil
}

func parseFlags(s string) (ra.Flags, error) {
	v, err := parseUint(s, 32)
	return ra.Flags(v), err
}
