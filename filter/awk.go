package filter

import (
	"fmt"
	gawki "github.com/benhoyt/goawk/interp"
	gawkp "github.com/benhoyt/goawk/parser"
	"strings"
)

// Expr is a row filter backed by an arbitrary AWK condition, for everything
// the triple predicates cannot say, ie regex matches, arithmetic between
// columns, boolean combinations:
//
//	e, err := filter.NewExpr(`$2 ~ /^tokyo/ && $3+0 > 100`, " ")
//	ok, err := e.Matches("001 tokyo 153")
//
// AWK field numbering applies, $1 is the first column and $0 the whole line.
// The program is parsed once and the interpreter reused for every line, so
// an Expr is cheap to run but not safe for concurrent use.
type Expr struct {
	cond   string
	interp *gawki.Interpreter
	fs     string
}

// NewExpr compiles cond into a reusable matcher splitting fields on
// delimiter. A malformed condition fails here, not at match time.
func NewExpr(cond string, delimiter string) (*Expr, error) {
	prog, err := gawkp.ParseProgram(
		[]byte(fmt.Sprintf("%s { print }", cond)),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("awk condition: %s", err)
	}

	interp, err := gawki.New(prog)
	if err != nil {
		return nil, fmt.Errorf("awk condition: %s", err)
	}

	return &Expr{
		cond:   cond,
		interp: interp,
		fs:     delimiter,
	}, nil
}

// Matches feeds the single line through the condition program. The line
// matched iff the program printed it back out.
func (self *Expr) Matches(line string) (bool, error) {
	buf := strings.Builder{}

	_, err := self.interp.Execute(&gawki.Config{
		Stdin:  strings.NewReader(line + "\n"),
		Output: &buf,
		Vars:   []string{"FS", self.fs},
	})
	if err != nil {
		return false, fmt.Errorf("awk condition %q: %s", self.cond, err)
	}
	return buf.Len() > 0, nil
}
