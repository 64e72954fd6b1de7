package vcode

import (
	"errors"
	"fmt"
)

// Validate checks unit structural invariants: every block ends in a
// branch or return, branch targets are in range, and register operands
// are within the unit's register count.
func Validate(u *Unit) error {
	if u == nil {
		return nil
	}
	var errs []error
	for bb, ops := range u.Blocks {
		if err := validateBlock(u, BlockID(bb), ops); err != nil {
			errs = append(errs, fmt.Errorf("unit %s: %w", u.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateBlock(u *Unit, bb BlockID, ops []Op) error {
	var errs []error

	if len(ops) == 0 {
		return fmt.Errorf("bb%d: empty block", bb)
	}

	for i := range ops {
		op := &ops[i]
		terminator := false
		switch op.Kind {
		case OpJump, OpCond, OpCase, OpReturn:
			terminator = true
		}
		if terminator && i != len(ops)-1 {
			errs = append(errs, fmt.Errorf("bb%d: %s at index %d is not last", bb, op.Kind, i))
		}
		if !terminator && i == len(ops)-1 {
			errs = append(errs, fmt.Errorf("bb%d: block does not end in a branch or return", bb))
		}

		for _, t := range op.Targets {
			if int(t) < 0 || int(t) >= len(u.Blocks) {
				errs = append(errs, fmt.Errorf("bb%d: %s target bb%d out of range", bb, op.Kind, t))
			}
		}
		for _, a := range op.Args {
			if a != RegNone && int(a) >= u.Regs {
				errs = append(errs, fmt.Errorf("bb%d: %s argument r%d out of range", bb, op.Kind, a))
			}
		}
		if op.Result != RegNone && int(op.Result) >= u.Regs {
			errs = append(errs, fmt.Errorf("bb%d: %s result r%d out of range", bb, op.Kind, op.Result))
		}
	}
	return errors.Join(errs...)
}
