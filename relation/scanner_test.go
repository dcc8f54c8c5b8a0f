package relation

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

// drain walks the whole relation and returns the groups in advance order.
func drain(t *testing.T, rel Relation) [][]Row {
	t.Helper()

	sc, err := OpenScanner(rel)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	out := [][]Row{}
	for {
		ok, err := sc.Advance()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		group := append([]Row{}, sc.Group()...)
		out = append(out, group)
	}
	return out
}

func TestScanGroups(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t,
		"001 aaa",
		"001 bbb",
		"002 ccc",
		"003 ddd",
		"003 eee",
		"003 fff",
	)
	groups := drain(t, Relation{
		Path: path,
		Key:  0,
		Left: true,
	})

	assert.Equal(3, len(groups))
	assert.Equal(2, len(groups[0]))
	assert.Equal(1, len(groups[1]))
	assert.Equal(3, len(groups[2]))

	// concatenating the groups in advance order reproduces the sorted input,
	// each row exactly once, left role formatting keeps every column
	flat := []string{}
	for _, g := range groups {
		for _, row := range g {
			flat = append(flat, row.Line)
		}
	}
	assert.Equal(
		[]string{
			"001 aaa ",
			"001 bbb ",
			"002 ccc ",
			"003 ddd ",
			"003 eee ",
			"003 fff ",
		},
		flat,
	)

	assert.Equal("001", groups[0][0].Key)
	assert.Equal("002", groups[1][0].Key)
	assert.Equal("003", groups[2][0].Key)
}

func TestScanSingleGroup(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "k a", "k b")
	groups := drain(t, Relation{
		Path: path,
		Key:  0,
		Left: true,
	})
	assert.Equal(1, len(groups))
	assert.Equal(2, len(groups[0]))
}

func TestScanKeyColumn(t *testing.T) {
	assert := assert.New(t)

	// group on the second column instead of the first
	path := writeRelation(t, "x 1 a", "y 1 b", "z 2 c")
	groups := drain(t, Relation{
		Path: path,
		Key:  1,
		Left: true,
	})
	assert.Equal(2, len(groups))
	assert.Equal("1", groups[0][0].Key)
	assert.Equal("2", groups[1][0].Key)
}

func TestAdvanceIdempotentAfterExhausted(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "1 a")
	sc, err := OpenScanner(Relation{
		Path: path,
		Key:  0,
		Left: true,
	})
	assert.True(err == nil)
	defer sc.Close()

	ok, err := sc.Advance()
	assert.True(err == nil)
	assert.True(ok)

	for i := 0; i < 3; i++ {
		ok, err = sc.Advance()
		assert.True(err == nil)
		assert.True(!ok)
	}
}

func TestScanEmptyFile(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t)
	sc, err := OpenScanner(Relation{
		Path: path,
		Key:  0,
		Left: true,
	})
	assert.True(err == nil)
	defer sc.Close()

	ok, err := sc.Advance()
	assert.True(err == nil)
	assert.True(!ok)
}

func TestFormatExplicitOutput(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "1 a b c")

	{
		groups := drain(t, Relation{
			Path:   path,
			Key:    0,
			Left:   true,
			Output: []int{0, 2},
		})
		assert.Equal("1 b ", groups[0][0].Line)
	}

	{
		// right role strips the trailing delimiter at the join seam
		groups := drain(t, Relation{
			Path:   path,
			Key:    0,
			Output: []int{0, 2},
		})
		assert.Equal("1 b", groups[0][0].Line)
	}
}

func TestFormatDefaultOmitRight(t *testing.T) {
	assert := assert.New(t)

	// scenario: right role default omission drops columns 0 and 1
	path := writeRelation(t, "1 a b c")
	groups := drain(t, Relation{
		Path: path,
		Key:  0,
	})
	assert.Equal("b c", groups[0][0].Line)
}

func TestFormatOmitOverride(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "1 a b c")

	{
		// a non nil empty omit list beats the right role default
		groups := drain(t, Relation{
			Path: path,
			Key:  0,
			Omit: []int{},
		})
		assert.Equal("1 a b c", groups[0][0].Line)
	}

	{
		groups := drain(t, Relation{
			Path: path,
			Key:  0,
			Left: true,
			Omit: []int{1, 3},
		})
		assert.Equal("1 b ", groups[0][0].Line)
	}
}

func TestFormatEmptyProjection(t *testing.T) {
	assert := assert.New(t)

	// a right row with nothing left after omission renders empty, it is not
	// an error
	path := writeRelation(t, "1 a")
	groups := drain(t, Relation{
		Path: path,
		Key:  0,
	})
	assert.Equal("", groups[0][0].Line)
}

func TestFormatMultiByteDelimiter(t *testing.T) {
	assert := assert.New(t)

	// the right role must strip the whole delimiter string, not one byte
	path := writeRelation(t, "1::a::b::c")
	groups := drain(t, Relation{
		Path:      path,
		Key:       0,
		Delimiter: "::",
	})
	assert.Equal("b::c", groups[0][0].Line)
}

func TestFormatOutputOutOfRange(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "1 a")
	sc, err := OpenScanner(Relation{
		Path:   path,
		Key:    0,
		Left:   true,
		Output: []int{5},
	})
	assert.True(err == nil)
	defer sc.Close()

	ok, err := sc.Advance()
	assert.True(!ok)
	assert.True(err != nil)
}

func TestScanShortKeyRow(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "1 a", "2")
	sc, err := OpenScanner(Relation{
		Path: path,
		Key:  1,
		Left: true,
	})
	assert.True(err == nil)
	defer sc.Close()

	// the first advance already reads ahead into the short row
	ok, err := sc.Advance()
	assert.True(!ok)
	assert.True(err != nil)
}

func TestScannerMissingFile(t *testing.T) {
	assert := assert.New(t)

	_, err := OpenScanner(Relation{
		Path: "/no/such/file.txt",
		Key:  0,
	})
	assert.True(err != nil)
}

func TestScannerCloseIdempotent(t *testing.T) {
	assert := assert.New(t)

	path := writeRelation(t, "1 a")
	sc, err := OpenScanner(Relation{
		Path: path,
		Key:  0,
	})
	assert.True(err == nil)
	assert.True(sc.Close() == nil)
	assert.True(sc.Close() == nil)
}
