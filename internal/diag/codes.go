package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Library and unit loading
	LibInfo         Code = 5000
	LibMissingUnit  Code = 5001
	LibBadUnitFile  Code = 5002
	LibDuplicateLib Code = 5003

	// Lowering
	LowerInfo        Code = 6000
	LowerUnsupported Code = 6001

	// Compile-time evaluation
	EvalInfo          Code = 7000
	EvalFoldPrevented Code = 7001
	EvalHeapExhausted Code = 7002
	EvalUnknownFunc   Code = 7003
	EvalManyDims      Code = 7004
	EvalUndefined     Code = 7005
	EvalBounds        Code = 7006
	EvalIndexCheck    Code = 7007
	EvalAssert        Code = 7008
	EvalReport        Code = 7009
	EvalDivByZero     Code = 7010
	EvalBadOp         Code = 7011
	EvalBadCast       Code = 7012
	EvalBadImage      Code = 7013
	EvalTypeViolation Code = 7014
	EvalQuota         Code = 7015
)

func (c Code) String() string {
	return fmt.Sprintf("HDL%04d", uint16(c))
}
