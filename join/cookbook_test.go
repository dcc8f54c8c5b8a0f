package join

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const TEST_DIR = "./test"

// ---------------------------------------------------------------------------
// An automatic end to end verification tool for the join pipeline. Each
// cookbook is a simple text file holding the two input tables, the join
// configuration and the expected output, tagged as follows
//
// ## a line comment
// @![name of section]
// @!attr1: val1
// @!attr2: val2
// @@@@@@@@@@@@@@@@@@ (start of the raw content, at least 3 @ should exist)
// @================= (end of the raw content, at least 3 = should exist)
//
// Recognized sections: left/right (table content), join (attrs: left_key,
// right_key, delimiter, left_output, right_output, left_omit, right_omit,
// left_where, right_where, sort), search (attr: cond, repeatable), result
// (expected rows) and verify (attr: size).

type section struct {
	name    string
	attr    map[string]string
	content string
}

func (self *section) attrAt(k string) string {
	v, ok := self.attr[k]
	if ok {
		return v
	}
	return ""
}

type cookbook struct {
	filename string
	dir      string // scratch dir the table files land in
	sections []*section
	result   []string
}

func (self *cookbook) get(n string) []*section {
	out := []*section{}
	for _, x := range self.sections {
		if x.name == n {
			out = append(out, x)
		}
	}
	return out
}

func (self *cookbook) getOne(n string) *section {
	x := self.get(n)
	if len(x) == 0 {
		return nil
	}
	return x[0]
}

func (self *cookbook) parse(data string) error {
	var cur *section
	content := false
	buf := []string{}

	for _, l := range strings.Split(data, "\n") {
		line := strings.TrimSpace(l)

		switch {
		case content && !strings.HasPrefix(line, "@=="):
			buf = append(buf, line)

		case strings.HasPrefix(line, "@=="):
			if !content {
				return fmt.Errorf("content end without content start")
			}
			cur.content = strings.Join(buf, "\n")
			content = false
			buf = buf[:0]

		case strings.HasPrefix(line, "@@@"):
			if cur == nil {
				return fmt.Errorf("content outside of any section")
			}
			content = true

		case strings.HasPrefix(line, "@!["):
			pos := strings.Index(line, "]")
			if pos == -1 {
				return fmt.Errorf("section name should be closed by ]")
			}
			cur = &section{
				name: strings.TrimSpace(line[3:pos]),
				attr: make(map[string]string),
			}
			self.sections = append(self.sections, cur)

		case strings.HasPrefix(line, "@!"):
			if cur == nil {
				return fmt.Errorf("attribute outside of any section")
			}
			pos := strings.IndexAny(line, ":=")
			if pos == -1 {
				return fmt.Errorf("expect ':' or '=' for attribute assignment")
			}
			key := strings.TrimSpace(line[2:pos])
			if key == "" {
				return fmt.Errorf("expect an id for attribute")
			}
			cur.attr[key] = strings.TrimSpace(line[pos+1:])
		}
	}

	if content {
		return fmt.Errorf("content section is never closed")
	}
	return nil
}

func (self *cookbook) parseFile() error {
	data, err := os.ReadFile(self.filename)
	if err != nil {
		return fmt.Errorf("[parsing]: %s", err)
	}
	if err := self.parse(string(data)); err != nil {
		return fmt.Errorf("[parsing]: %s", err)
	}
	return nil
}

func (self *cookbook) prepareTable(name string) (string, error) {
	sec := self.getOne(name)
	if sec == nil {
		return "", fmt.Errorf("[table]: section %s is not found", name)
	}
	path := filepath.Join(self.dir, name+".txt")
	if err := os.WriteFile(
		path,
		[]byte(sec.content+"\n"),
		0644,
	); err != nil {
		return "", err
	}
	return path, nil
}

func intListAttr(v string) ([]int, error) {
	// "none" is the explicit empty list, it overrides a role default
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

func (self *cookbook) options(sec *section) (Options, error) {
	opts := NewOptions()

	intAt := func(k string, out *int) error {
		if v := sec.attrAt(k); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*out = i
		}
		return nil
	}
	listAt := func(k string, out *[]int) error {
		if v := sec.attrAt(k); v != "" {
			l, err := intListAttr(v)
			if err != nil {
				return err
			}
			*out = l
		}
		return nil
	}

	if err := intAt("left_key", &opts.LeftKey); err != nil {
		return opts, err
	}
	if err := intAt("right_key", &opts.RightKey); err != nil {
		return opts, err
	}
	if v := sec.attrAt("delimiter"); v != "" {
		opts.Delimiter = v
	}
	if err := listAt("left_output", &opts.LeftOutput); err != nil {
		return opts, err
	}
	if err := listAt("right_output", &opts.RightOutput); err != nil {
		return opts, err
	}
	if err := listAt("left_omit", &opts.LeftOmit); err != nil {
		return opts, err
	}
	if err := listAt("right_omit", &opts.RightOmit); err != nil {
		return opts, err
	}
	return opts, nil
}

func (self *cookbook) run() error {
	if err := self.parseFile(); err != nil {
		return err
	}

	leftPath, err := self.prepareTable("left")
	if err != nil {
		return err
	}
	rightPath, err := self.prepareTable("right")
	if err != nil {
		return err
	}

	joinSec := self.getOne("join")
	if joinSec == nil {
		return fmt.Errorf("[join]: join section is not found")
	}
	opts, err := self.options(joinSec)
	if err != nil {
		return fmt.Errorf("[join]: %s", err)
	}

	m := NewManipulatorOpt(leftPath, rightPath, opts)
	defer m.Cleanup()

	if v := joinSec.attrAt("left_where"); v != "" {
		m.LeftWhere(v)
	}
	if v := joinSec.attrAt("right_where"); v != "" {
		m.RightWhere(v)
	}
	for _, sec := range self.get("search") {
		if v := sec.attrAt("cond"); v != "" {
			m.SearchWhere(v)
		}
	}

	// inputs are sorted by the pipeline unless the cookbook opts out
	if joinSec.attrAt("sort") != "no" {
		if err := m.Sort(); err != nil {
			return fmt.Errorf("[sort]: %s", err)
		}
	}

	rows, err := m.Join()
	if err != nil {
		return fmt.Errorf("[join]: %s", err)
	}
	if len(self.get("search")) > 0 {
		rows, err = m.Search()
		if err != nil {
			return fmt.Errorf("[search]: %s", err)
		}
	}
	self.result = rows

	return self.verify()
}

func (self *cookbook) verify() error {
	if sec := self.getOne("result"); sec != nil {
		expect := []string{}
		if sec.content != "" {
			expect = strings.Split(sec.content, "\n")
		}
		if len(expect) != len(self.result) {
			return fmt.Errorf(
				"[verify]: row size not match, expect(%d), got(%d)",
				len(expect),
				len(self.result),
			)
		}
		for i, e := range expect {
			if e != self.result[i] {
				return fmt.Errorf(
					"[verify]: row(%d) ({%s} {%s}) not match",
					i,
					e,
					self.result[i],
				)
			}
		}
	}

	if sec := self.getOne("verify"); sec != nil {
		if x := sec.attrAt("size"); x != "" {
			sz, err := strconv.Atoi(x)
			if err != nil {
				return err
			}
			if len(self.result) != sz {
				return fmt.Errorf(
					"[verify]: size not match(%d != %d)",
					len(self.result),
					sz,
				)
			}
		}
	}
	return nil
}

func TestCookbook(t *testing.T) {
	assert := assert.New(t)

	fList, err := os.ReadDir(TEST_DIR)
	assert.True(err == nil)

	tt := 0
	ttErr := 0
	for _, fentry := range fList {
		if fentry.IsDir() {
			continue
		}
		cb := &cookbook{
			filename: filepath.Join(TEST_DIR, fentry.Name()),
			dir:      t.TempDir(),
		}
		tt++
		if err := cb.run(); err != nil {
			print(fmt.Sprintf("cookbook(%s) failed: %s\n", cb.filename, err))
			assert.True(false)
			ttErr++
		} else {
			print(fmt.Sprintf("cookbook(%s) passed\n", cb.filename))
		}
	}

	t.Log(
		fmt.Sprintf(
			"total(%d), err(%d), ratio(%f)",
			tt,
			ttErr,
			float64(tt-ttErr)/float64(tt),
		),
	)
}
