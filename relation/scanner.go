package relation

import (
	"bufio"
	"github.com/dianpeng/flatjoin/filter"
	"github.com/pkg/errors"
	"os"
	"strings"
)

// ----------------------------------------------------------------------------
// Grouped scan. The scanner walks a key sorted file one key group at a time,
// a group being the maximal run of consecutive lines sharing the key column
// value. It is a small state machine:
//
//	Ready ----advance----> GroupAvailable ----advance----> ... -> Exhausted
//
// Advancing reads lines until the key changes, the line that broke the run
// is kept as look-ahead state, still raw, and opens the next group on the
// following advance. At EOF the scanner turns Exhausted and every further
// advance reports false without touching the file again.
// ----------------------------------------------------------------------------

const (
	stateReady = iota
	stateGroupAvailable
	stateExhausted
)

// Scanner scans one relation group by group. Not safe for concurrent use,
// each side of a join owns its scanner exclusively.
type Scanner struct {
	rel       Relation
	delimiter string
	omit      map[int]bool
	file      *os.File
	reader    *bufio.Scanner
	state     int
	lookahead string // raw line that opened the next group
	buffered  bool   // whether lookahead holds a line
	group     []Row
}

// OpenScanner opens the relation's file and returns a scanner in Ready
// state. The caller must Close it, advancing to Exhausted alone does not
// release the handle.
func OpenScanner(rel Relation) (*Scanner, error) {
	f, err := os.Open(rel.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "scanner: relation %s", rel.Path)
	}
	return &Scanner{
		rel:       rel,
		delimiter: rel.delimiter(),
		omit:      rel.omitSet(),
		file:      f,
		reader:    bufio.NewScanner(f),
	}, nil
}

// Group returns the rows of the current key group. Valid after an Advance
// that returned true, the slice is rebuilt by the next Advance.
func (self *Scanner) Group() []Row { return self.group }

// Key returns the current group's key value.
func (self *Scanner) Key() string {
	if len(self.group) == 0 {
		return ""
	}
	return self.group[0].Key
}

// next hands out the buffered look-ahead line first, then resumes reading
// the file. The third result is false at EOF.
func (self *Scanner) next() (string, bool, error) {
	if self.buffered {
		line := self.lookahead
		self.buffered = false
		self.lookahead = ""
		return line, true, nil
	}
	if self.reader.Scan() {
		return self.reader.Text(), true, nil
	}
	if err := self.reader.Err(); err != nil {
		return "", false, errors.Wrapf(err, "scanner: relation %s", self.rel.Path)
	}
	return "", false, nil
}

// Advance reads the next key group, reporting true iff a non empty group is
// now available. After the source is exhausted it keeps returning false
// without error.
func (self *Scanner) Advance() (bool, error) {
	if self.state == stateExhausted {
		return false, nil
	}

	self.group = self.group[:0]
	groupKey := ""

	for {
		line, ok, err := self.next()
		if err != nil {
			return false, err
		}
		if !ok {
			self.state = stateExhausted
			break
		}

		columns := strings.Split(line, self.delimiter)
		if self.rel.Key >= len(columns) {
			return false, &filter.ParseError{
				Line:   line,
				Column: self.rel.Key,
				Reason: "row has too few columns for key",
			}
		}
		key := columns[self.rel.Key]

		if len(self.group) > 0 && key != groupKey {
			// the run ended, stash the raw line for the next group
			self.lookahead = line
			self.buffered = true
			break
		}

		formatted, err := self.format(columns)
		if err != nil {
			if pe, yes := err.(*filter.ParseError); yes && pe.Line == "" {
				pe.Line = line
			}
			return false, err
		}

		self.group = append(self.group, Row{
			Line: formatted,
			Key:  key,
		})
		groupKey = key
	}

	if len(self.group) == 0 {
		return false, nil
	}
	if self.state != stateExhausted {
		self.state = stateGroupAvailable
	}
	return true, nil
}

// format projects one split row into its output string. With an explicit
// output list exactly those columns are emitted, otherwise all columns minus
// the omit set. Every emitted column carries a trailing delimiter, the right
// role strips the final one so the join seam has a single separator.
func (self *Scanner) format(columns []string) (string, error) {
	buf := strings.Builder{}

	if self.rel.Output != nil {
		for _, c := range self.rel.Output {
			if c >= len(columns) {
				return "", &filter.ParseError{
					Column: c,
					Reason: "row has too few columns for output list",
				}
			}
			buf.WriteString(columns[c])
			buf.WriteString(self.delimiter)
		}
	} else {
		for i, column := range columns {
			if self.omit[i] {
				continue
			}
			buf.WriteString(column)
			buf.WriteString(self.delimiter)
		}
	}

	out := buf.String()
	if !self.rel.Left {
		// the whole delimiter string, a multi byte delimiter must not leave
		// half of itself behind
		out = strings.TrimSuffix(out, self.delimiter)
	}
	return out, nil
}

// Close releases the underlying file handle. Idempotent, and required even
// after exhaustion.
func (self *Scanner) Close() error {
	if self.file == nil {
		return nil
	}
	err := self.file.Close()
	self.file = nil
	if err != nil {
		return errors.Wrapf(err, "scanner: relation %s", self.rel.Path)
	}
	return nil
}
