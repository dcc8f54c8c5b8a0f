package join

import (
	"fmt"
	"github.com/dianpeng/flatjoin/filter"
	"github.com/dianpeng/flatjoin/relation"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
	"os"
	"time"
)

// TaskError reports the failure of one of the two parallel sort tasks. The
// whole join aborts on it, the surviving side's output is discarded.
type TaskError struct {
	Side string // "left" or "right"
	Err  error
}

func (self *TaskError) Error() string {
	return fmt.Sprintf("sort task(%s): %s", self.Side, self.Err)
}

func (self *TaskError) Unwrap() error { return self.Err }

// Manipulator is the one stop facade over the whole pipeline: per side
// filtered sorting, merge joining the sorted files, and a post join search
// pass. Filters chain before Sort runs:
//
//	m := join.NewManipulator("people.txt", "city.txt").
//		LeftFilter(2, filter.GTE, 2000).
//		SearchWhere(`$0 == "tokyo"`)
//	defer m.Cleanup()
//
// A Manipulator serves one join invocation, it is not safe for concurrent
// use.
type Manipulator struct {
	leftPath  string
	rightPath string
	opts      Options

	leftSorter  *relation.Sorter
	rightSorter *relation.Sorter
	search      *filter.RowFilter
	logger      log.Logger

	// paths actually joined, the raw inputs until a sort replaces them
	sortedLeft  string
	sortedRight string

	owned  []string // temp files Cleanup deletes
	joined []string // retained join output, Search input
}

// NewManipulator builds a manipulator with the default options, both sides
// keyed on DefaultJoinKey.
func NewManipulator(leftPath, rightPath string) *Manipulator {
	return NewManipulatorOpt(leftPath, rightPath, NewOptions())
}

func NewManipulatorOpt(
	leftPath string,
	rightPath string,
	opts Options,
) *Manipulator {
	if opts.Delimiter == "" {
		opts.Delimiter = relation.DefaultDelimiter
	}
	return &Manipulator{
		leftPath:  leftPath,
		rightPath: rightPath,
		opts:      opts,
		leftSorter: relation.NewSorterConfig(
			leftPath,
			opts.LeftKey,
			opts.Delimiter,
		),
		rightSorter: relation.NewSorterConfig(
			rightPath,
			opts.RightKey,
			opts.Delimiter,
		),
		search:      filter.NewRowFilterDelim(opts.Delimiter),
		logger:      log.NewNopLogger(),
		sortedLeft:  leftPath,
		sortedRight: rightPath,
	}
}

// Logger installs a logger for debug level progress reporting, the default
// is a nop.
func (self *Manipulator) Logger(l log.Logger) *Manipulator {
	self.logger = l
	return self
}

// LeftFilter chains one predicate onto the left side's pre sort filter.
func (self *Manipulator) LeftFilter(
	column int,
	op filter.Operator,
	value interface{},
) *Manipulator {
	self.leftSorter.Filter(column, op, value)
	return self
}

func (self *Manipulator) RightFilter(
	column int,
	op filter.Operator,
	value interface{},
) *Manipulator {
	self.rightSorter.Filter(column, op, value)
	return self
}

// LeftWhere chains the predicate described by a condition string, see
// filter.ParseCond.
func (self *Manipulator) LeftWhere(cond string) *Manipulator {
	self.leftSorter.Where(cond)
	return self
}

func (self *Manipulator) RightWhere(cond string) *Manipulator {
	self.rightSorter.Where(cond)
	return self
}

// LeftExpr chains an AWK condition onto the left side's pre sort filter.
func (self *Manipulator) LeftExpr(cond string) *Manipulator {
	self.leftSorter.Expr(cond)
	return self
}

func (self *Manipulator) RightExpr(cond string) *Manipulator {
	self.rightSorter.Expr(cond)
	return self
}

// SearchFilter chains one predicate onto the post join search filter. The
// search filter sees joined rows, so column indices address the concatenated
// output, not either input.
func (self *Manipulator) SearchFilter(
	column int,
	op filter.Operator,
	value interface{},
) *Manipulator {
	self.search.Filter(column, op, value)
	return self
}

func (self *Manipulator) SearchWhere(cond string) *Manipulator {
	self.search.Where(cond)
	return self
}

// Sort runs both sides' sort-to-file tasks in parallel and barriers on both
// finishing. The first failure aborts the join as a TaskError and the other
// side's temp file, even if it sorted fine, is removed and discarded.
func (self *Manipulator) Sort() error {
	started := time.Now()

	var leftOut, rightOut string
	g := errgroup.Group{}
	g.Go(func() error {
		p, err := self.leftSorter.SortToFile()
		if err != nil {
			return &TaskError{
				Side: "left",
				Err:  err,
			}
		}
		leftOut = p
		return nil
	})
	g.Go(func() error {
		p, err := self.rightSorter.SortToFile()
		if err != nil {
			return &TaskError{
				Side: "right",
				Err:  err,
			}
		}
		rightOut = p
		return nil
	})

	// Wait joins both goroutines, the output paths are settled after it
	if err := g.Wait(); err != nil {
		for _, p := range []string{leftOut, rightOut} {
			if p != "" {
				os.Remove(p)
			}
		}
		return err
	}

	self.sortedLeft = leftOut
	self.sortedRight = rightOut
	self.owned = append(self.owned, leftOut, rightOut)

	level.Debug(self.logger).Log(
		"msg", "sorted both sides",
		"left", leftOut,
		"right", rightOut,
		"elapsed", time.Since(started),
	)
	return nil
}

// SortSides sorts only the requested sides, sequentially, the other side's
// raw input is joined verbatim on the assumption that it is already sorted.
// SortSides(true, true) is Sort without the parallelism.
func (self *Manipulator) SortSides(left, right bool) error {
	if left {
		p, err := self.leftSorter.SortToFile()
		if err != nil {
			return &TaskError{
				Side: "left",
				Err:  err,
			}
		}
		self.sortedLeft = p
		self.owned = append(self.owned, p)
	}
	if right {
		p, err := self.rightSorter.SortToFile()
		if err != nil {
			return &TaskError{
				Side: "right",
				Err:  err,
			}
		}
		self.sortedRight = p
		self.owned = append(self.owned, p)
	}
	return nil
}

// Join merge joins the sorted sides and retains the result for Search. The
// default options given at construction apply unless overridden here.
func (self *Manipulator) Join(opts ...Options) ([]string, error) {
	o := self.opts
	if len(opts) > 0 {
		o = opts[0]
	}

	out, err := Join(self.sortedLeft, self.sortedRight, o)
	if err != nil {
		return nil, err
	}
	self.joined = out

	level.Debug(self.logger).Log(
		"msg", "join done",
		"rows", len(out),
	)
	return out, nil
}

// Search re-filters the retained join output through the search filter, an
// empty filter passes every row.
func (self *Manipulator) Search() ([]string, error) {
	return Search(self.joined, self.search)
}

// Search filters any joined row slice through a row filter.
func Search(rows []string, f *filter.RowFilter) ([]string, error) {
	out := []string{}
	for _, row := range rows {
		ok, err := f.Matches(row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// Cleanup deletes the temp files the manipulator produced. Idempotent,
// deletion failures are logged and otherwise ignored.
func (self *Manipulator) Cleanup() {
	for _, p := range self.owned {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			level.Debug(self.logger).Log(
				"msg", "cleanup failed",
				"path", p,
				"err", err,
			)
		}
	}
	self.owned = nil
}
