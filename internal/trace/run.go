package trace

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/rangekit/ra"
)

// Result is the outcome of one step.
type Result struct {
	Step  Step
	Alloc ra.Allocation // OpAlloc only
	Err   error
}

// Run replays steps against a. Labels stay bound after free so that a double
// free can be written as "! free label". It stops at the first step whose outcome
// contradicts its expectation and returns the results so far together with an
// error matching ErrUnexpected.
func Run(a *ra.Arena, steps []Step) ([]Result, error) {
	labels := make(map[string]uint64)
	results := make([]Result, 0, len(steps))

	for _, st := range steps {
		res := Result{Step: st}

		switch st.Op {
		case OpAdd:
			res.Err = a.Add(st.Base, st.Size, st.Flags)
		case OpAlloc:
			res.Alloc, res.Err = a.Alloc(st.Size, st.Flags, st.Align)
			if res.Err == nil && st.Label != "" {
				labels[st.Label] = res.Alloc.Base
			}
		case OpFree:
			base, ok := labels[st.Ref]
			if !ok {
				v, err := strconv.ParseUint(st.Ref, 0, 64)
				if err != nil {
					res.Err = errors.Wrapf(ErrSyntax, "unknown label %q", st.Ref)
					results = append(results, res)
					return results, errors.Wrapf(res.Err, "line %d", st.Line)
				}
				base = v
			}
			res.Err = a.Free(base)
		case OpCheck:
			res.Err = a.CheckInvariants()
		}

		results = append(results, res)

		switch {
		case st.ExpectFail && res.Err == nil:
			return results, errors.Wrapf(ErrUnexpected, "line %d: %s succeeded, expected failure", st.Line, st.Op)
		case !st.ExpectFail && res.Err != nil:
			return results, errors.Wrapf(errors.Join(ErrUnexpected, res.Err), "line %d: %s", st.Line, st.Op)
		}
	}
	return results, nil
}
