package filter

// Condition strings are the text form of one predicate, mostly for command
// line use. The grammar is tiny:
//
// cond     := column op value
// column   := '$' digit+
// op       := '==' | '>=' | '>' | '<=' | '<'
// value    := int | string
// int      := '-'? digit+
// string   := quoted | bare
// quoted   := ('"' | '\'') char* ('"' | '\'')
// bare     := any run without whitespace
//
// The shape of the literal decides the predicate value's type, $2 >= 100
// compares column 2 numerically while $2 >= "100" compares it bytewise.
// Quoting is the way to force string typing onto something that looks like a
// number.

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

type condScanner struct {
	source string
	cursor int
}

func (self *condScanner) nextRune() (rune, int) {
	if self.cursor >= len(self.source) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(self.source[self.cursor:])
}

func (self *condScanner) err(msg string) error {
	return fmt.Errorf("condition: around position(%d): %s", self.cursor, msg)
}

func (self *condScanner) isWS(r rune) bool {
	switch r {
	case ' ', '\r', '\t', '\n', '\b', '\v':
		return true
	default:
		return false
	}
}

func (self *condScanner) skipWS() {
	for {
		r, sz := self.nextRune()
		if sz == 0 || !self.isWS(r) {
			break
		}
		self.cursor += sz
	}
}

func (self *condScanner) eof() bool {
	return self.cursor >= len(self.source)
}

func (self *condScanner) column() (int, error) {
	r, sz := self.nextRune()
	if r != '$' {
		return 0, self.err("expect '$' to lead a column index")
	}
	self.cursor += sz

	start := self.cursor
	for {
		r, sz := self.nextRune()
		if sz == 0 || r < '0' || r > '9' {
			break
		}
		self.cursor += sz
	}
	if start == self.cursor {
		return 0, self.err("expect digits after '$'")
	}

	v, err := strconv.Atoi(self.source[start:self.cursor])
	if err != nil {
		return 0, self.err(err.Error())
	}
	return v, nil
}

func (self *condScanner) operator() (Operator, error) {
	r, sz := self.nextRune()

	switch r {
	case '=':
		if self.peek(sz) == '=' {
			self.cursor += sz + 1
			return EQ, nil
		}
		return 0, self.err("are you missing '=' for == operator?")

	case '>':
		if self.peek(sz) == '=' {
			self.cursor += sz + 1
			return GTE, nil
		}
		self.cursor += sz
		return GT, nil

	case '<':
		if self.peek(sz) == '=' {
			self.cursor += sz + 1
			return LTE, nil
		}
		self.cursor += sz
		return LT, nil

	default:
		return 0, self.err("unknown operator, expect one of == >= > <= <")
	}
}

func (self *condScanner) peek(offset int) rune {
	if self.cursor+offset >= len(self.source) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(self.source[self.cursor+offset:])
	return r
}

func (self *condScanner) quotedValue(quote rune) (Value, error) {
	self.cursor++ // skip the opening quote
	buf := []rune{}

	for {
		r, sz := self.nextRune()
		if sz == 0 {
			return Value{}, self.err("string literal is not closed by quote properly")
		}
		if r == quote {
			self.cursor += sz
			break
		}

		if r == '\\' {
			self.cursor += sz
			cc, csz := self.nextRune()
			switch cc {
			case 't':
				buf = append(buf, '\t')
			case 'n':
				buf = append(buf, '\n')
			case '\'':
				buf = append(buf, '\'')
			case '"':
				buf = append(buf, '"')
			case '\\':
				buf = append(buf, '\\')
			default:
				return Value{}, self.err("unknown escape sequence inside of string literal")
			}
			self.cursor += csz
			continue
		}

		buf = append(buf, r)
		self.cursor += sz
	}

	return NewStrValue(string(buf)), nil
}

func (self *condScanner) bareValue() (Value, error) {
	start := self.cursor
	for {
		r, sz := self.nextRune()
		if sz == 0 || self.isWS(r) {
			break
		}
		self.cursor += sz
	}
	if start == self.cursor {
		return Value{}, self.err("expect a comparison value")
	}

	tok := self.source[start:self.cursor]

	// an int64 looking literal becomes an integer predicate, anything else
	// stays a string
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return NewIntValue(i), nil
	}
	return NewStrValue(tok), nil
}

func (self *condScanner) value() (Value, error) {
	r, _ := self.nextRune()
	switch r {
	case '\'', '"':
		return self.quotedValue(r)
	default:
		return self.bareValue()
	}
}

// ParseCond parses one condition string into its predicate.
func ParseCond(cond string) (Predicate, error) {
	s := &condScanner{
		source: cond,
	}

	s.skipWS()
	column, err := s.column()
	if err != nil {
		return Predicate{}, err
	}

	s.skipWS()
	op, err := s.operator()
	if err != nil {
		return Predicate{}, err
	}

	s.skipWS()
	value, err := s.value()
	if err != nil {
		return Predicate{}, err
	}

	s.skipWS()
	if !s.eof() {
		return Predicate{}, s.err("dangling text after the condition is finished")
	}

	return Predicate{
		Column: column,
		Op:     op,
		Value:  value,
	}, nil
}
