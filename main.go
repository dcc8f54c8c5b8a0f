package main

import (
	"flag"
	"fmt"
	"github.com/dianpeng/flatjoin/join"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"os"
	"strconv"
	"strings"
)

var (
	fLeft = flag.String(
		"left",
		"",
		"path of the left relation, required",
	)
	fRight = flag.String(
		"right",
		"",
		"path of the right relation, required",
	)
	fLeftKey = flag.Int(
		"left-key",
		join.DefaultJoinKey,
		"join/sort key column of the left relation, 0 based",
	)
	fRightKey = flag.Int(
		"right-key",
		join.DefaultJoinKey,
		"join/sort key column of the right relation, 0 based",
	)
	fDelimiter = flag.String(
		"delimiter",
		" ",
		"column delimiter of both relations",
	)
	fLeftOutput = flag.String(
		"left-output",
		"",
		"comma separated output columns of the left side, ie 0,2,3",
	)
	fRightOutput = flag.String(
		"right-output",
		"",
		"comma separated output columns of the right side",
	)
	fLeftOmit = flag.String(
		"left-omit",
		"",
		"comma separated columns dropped from the left side, 'none' keeps all",
	)
	fRightOmit = flag.String(
		"right-omit",
		"",
		"comma separated columns dropped from the right side, 'none' keeps all",
	)
	fLeftWhere = flag.String(
		"left-where",
		"",
		"AWK condition admitting left rows, ie '$2 ~ /^tokyo/'",
	)
	fRightWhere = flag.String(
		"right-where",
		"",
		"AWK condition admitting right rows",
	)
	fNoSortLeft = flag.Bool(
		"no-sort-left",
		false,
		"treat the left relation as already sorted",
	)
	fNoSortRight = flag.Bool(
		"no-sort-right",
		false,
		"treat the right relation as already sorted",
	)
	fOutput = flag.String(
		"output",
		"",
		"specify path to save output file, default write to STDOUT",
	)
	fPretty = flag.Bool(
		"pretty",
		false,
		"render an aligned, colored table instead of raw rows",
	)
	fVerbose = flag.Bool(
		"verbose",
		false,
		"logfmt progress logging on STDERR",
	)

	fLeftFilter  condList
	fRightFilter condList
	fSearch      condList
)

// condList collects a repeatable condition flag, ie
// -search '$0 == 100' -search '$3 >= tokyo'
type condList []string

func (self *condList) String() string {
	return strings.Join(*self, "; ")
}

func (self *condList) Set(v string) error {
	*self = append(*self, v)
	return nil
}

func init() {
	flag.Var(
		&fLeftFilter,
		"left-filter",
		"condition admitting left rows, ie '$1 >= 100', repeatable",
	)
	flag.Var(
		&fRightFilter,
		"right-filter",
		"condition admitting right rows, repeatable",
	)
	flag.Var(
		&fSearch,
		"search",
		"condition over the joined rows, repeatable",
	)
}

func oops(stage string, err error) {
	fmt.Fprintf(os.Stderr, "ERROR [%s]]] %s\n", stage, err)
	os.Exit(-1)
}

func intList(v string) ([]int, error) {
	if v == "none" {
		return []int{}, nil
	}
	out := []int{}
	for _, piece := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(piece))
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func options() join.Options {
	opts := join.NewOptions()
	opts.LeftKey = *fLeftKey
	opts.RightKey = *fRightKey
	opts.Delimiter = *fDelimiter

	listAt := func(v string, out *[]int) {
		if v == "" {
			return
		}
		l, err := intList(v)
		if err != nil {
			oops("flag", err)
		}
		*out = l
	}
	listAt(*fLeftOutput, &opts.LeftOutput)
	listAt(*fRightOutput, &opts.RightOutput)
	listAt(*fLeftOmit, &opts.LeftOmit)
	listAt(*fRightOmit, &opts.RightOmit)
	return opts
}

func logger() log.Logger {
	if !*fVerbose {
		return log.NewNopLogger()
	}
	return level.NewFilter(
		log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)),
		level.AllowDebug(),
	)
}

// run drives the whole pipeline. The manipulator's temp files are cleaned up
// on every return path, which is why this does not live inside main, oops
// exits without running defers.
func run(opts join.Options) ([]string, error) {
	m := join.NewManipulatorOpt(*fLeft, *fRight, opts).Logger(logger())
	defer m.Cleanup()

	for _, c := range fLeftFilter {
		m.LeftWhere(c)
	}
	for _, c := range fRightFilter {
		m.RightWhere(c)
	}
	if *fLeftWhere != "" {
		m.LeftExpr(*fLeftWhere)
	}
	if *fRightWhere != "" {
		m.RightExpr(*fRightWhere)
	}
	for _, c := range fSearch {
		m.SearchWhere(c)
	}

	sortLeft := !*fNoSortLeft
	sortRight := !*fNoSortRight
	if sortLeft && sortRight {
		if err := m.Sort(); err != nil {
			return nil, err
		}
	} else {
		if err := m.SortSides(sortLeft, sortRight); err != nil {
			return nil, err
		}
	}

	if _, err := m.Join(); err != nil {
		return nil, err
	}
	return m.Search()
}

func main() {
	flag.Parse()
	if *fLeft == "" || *fRight == "" {
		oops("flag", fmt.Errorf("both -left and -right are required"))
	}

	rows, err := run(options())
	if err != nil {
		oops("join", err)
	}

	out := ""
	if *fPretty {
		out = newRenderer(*fDelimiter).render(rows)
	} else if len(rows) > 0 {
		out = strings.Join(rows, "\n") + "\n"
	}

	if *fOutput == "" {
		fmt.Printf("%s", out)
	} else {
		if err := os.WriteFile(
			*fOutput,
			[]byte(out),
			0644,
		); err != nil {
			oops("save", err)
		}
	}
	os.Exit(0)
}
