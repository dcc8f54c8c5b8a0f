package filter

// Comparison operators recognized by a Predicate. Each one carries its own
// bit so a set of operators can be OR-ed together into one mask, which leaves
// room for compound operators, ie NE would be GT|LT, even though none is
// predefined for now.
type Operator int

const (
	EQ  Operator = 1 << iota // ==
	GTE                      // >=
	GT                       // >
	LTE                      // <=
	LT                       // <
)

// ----------------------------------------------------------------------------
// Outcome masks. A three way comparison of target against value yields one of
// {<0, 0, >0}, and each outcome maps to the fixed set of operators it
// satisfies. A predicate matches iff the outcome's mask and the predicate's
// operator share at least one bit, which keeps the evaluation entirely branch
// free with respect to the operator itself.
// ----------------------------------------------------------------------------

const (
	diffZero     = EQ | LTE | GTE // target == value
	diffNegative = LT | LTE      // target < value
	diffPositive = GT | GTE      // target > value
)

func outcomeMask(diff int) Operator {
	if diff == 0 {
		return diffZero
	}
	if diff < 0 {
		return diffNegative
	}
	return diffPositive
}

// Match maps a three way comparison outcome onto this operator.
func (self Operator) Match(diff int) bool {
	return (outcomeMask(diff) & self) != 0
}

func (self Operator) String() string {
	switch self {
	case EQ:
		return "=="
	case GTE:
		return ">="
	case GT:
		return ">"
	case LTE:
		return "<="
	case LT:
		return "<"
	default:
		return "op(?)"
	}
}
