// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
)

type (
	// sourcePos is a 1-based line/column location in a TOML document. The
	// zero value means the location is unknown.
	sourcePos struct {
		Line   int
		Column int
		Width  int
	}

	// sourceIndex records where the keys and [table] headers of a TOML
	// document are. Paths are the decoded key segments joined with dots, so
	// quoting and dotted keys resolve to the same entry. The first
	// definition of a path wins.
	sourceIndex struct {
		keys   map[string]sourcePos
		tables map[string]sourcePos
	}
)

// indexSource walks src with the go-toml parser. A document that fails to
// parse yields the locations found before the error.
func indexSource(src []byte) sourceIndex {
	idx := sourceIndex{
		keys:   make(map[string]sourcePos),
		tables: make(map[string]sourcePos),
	}
	var p unstable.Parser
	p.Reset(src)

	current := ""
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table:
			segs, ranges := keySegments(expr.Key())
			current = strings.Join(segs, ".")
			if _, ok := idx.tables[current]; !ok && len(ranges) > 0 {
				idx.tables[current] = headerPos(&p, ranges[0], ranges[len(ranges)-1])
			}
		case unstable.ArrayTable:
			segs, _ := keySegments(expr.Key())
			// Array elements have no single path; their keys stay unaddressable.
			current = strings.Join(segs, ".") + "[]"
		case unstable.KeyValue:
			idx.addKeyValue(&p, current, expr)
		}
	}
	return idx
}

func (idx sourceIndex) addKeyValue(p *unstable.Parser, prefix string, kv *unstable.Node) {
	segs, ranges := keySegments(kv.Key())
	path := prefix
	for i, seg := range segs {
		path = joinPath(path, seg)
		if _, ok := idx.keys[path]; !ok {
			idx.keys[path] = spanPos(p, ranges[0], ranges[i])
		}
	}
	if v := kv.Value(); v != nil && v.Kind == unstable.InlineTable {
		it := v.Children()
		for it.Next() {
			idx.addKeyValue(p, path, it.Node())
		}
	}
}

// key returns the location of key inside table.
func (idx sourceIndex) key(table, key string) sourcePos {
	return idx.keys[joinPath(table, key)]
}

// table returns the location of the [table] header.
func (idx sourceIndex) table(table string) sourcePos {
	return idx.tables[table]
}

// defines reports whether table appears as a header, a key or a dotted key
// prefix.
func (idx sourceIndex) defines(table string) bool {
	if _, ok := idx.tables[table]; ok {
		return true
	}
	_, ok := idx.keys[table]
	return ok
}

func keySegments(it unstable.Iterator) ([]string, []unstable.Range) {
	var (
		segs   []string
		ranges []unstable.Range
	)
	for it.Next() {
		n := it.Node()
		segs = append(segs, string(n.Data))
		ranges = append(ranges, n.Raw)
	}
	return segs, ranges
}

// spanPos covers the key segments from first through last.
func spanPos(p *unstable.Parser, first, last unstable.Range) sourcePos {
	start := p.Shape(first).Start
	end := p.Shape(last).End
	return sourcePos{Line: start.Line, Column: start.Column, Width: end.Offset - start.Offset}
}

// headerPos widens a header's key span to its enclosing brackets.
func headerPos(p *unstable.Parser, first, last unstable.Range) sourcePos {
	src := p.Data()
	start := p.Shape(first).Start
	from := start.Offset
	for from > 0 && isBlank(src[from-1]) {
		from--
	}
	if from > 0 && src[from-1] == '[' {
		from--
	}
	to := p.Shape(last).End.Offset
	for to < len(src) && isBlank(src[to]) {
		to++
	}
	if to < len(src) && src[to] == ']' {
		to++
	}
	return sourcePos{Line: start.Line, Column: start.Column - (start.Offset - from), Width: to - from}
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func joinPath(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

// sourceLine returns line n (1-based) of src without its newline.
func sourceLine(src []byte, n int) string {
	if n <= 0 {
		return ""
	}
	lineNo := 0
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		lineNo++
		if lineNo == n {
			return strings.TrimRight(scanner.Text(), "\r")
		}
	}
	return ""
}
