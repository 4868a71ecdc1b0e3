package core

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// TreePair is a child name and its parent name. Parent is empty for a
// top-level entry.
type TreePair struct {
	Name   string
	Parent string
}

// ReadTree converts indentation-formatted lines into name/parent pairs in
// parent-before-child order. Blank lines are skipped. Indentation is the
// count of leading whitespace characters; dedenting to a level that no open
// ancestor uses is an error.
//
//	food          -> {food, ""}
//	  meat        -> {meat, food}
//	    raw meat  -> {raw meat, meat}
//	books         -> {books, ""}
func ReadTree(r io.Reader) ([]TreePair, error) {
	type level struct {
		name   string
		indent int
	}

	var (
		result     []TreePair
		open       []level
		lastName   string
		lastIndent = -1
		lineNo     int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}
		name := strings.TrimLeftFunc(line, unicode.IsSpace)
		indent := len([]rune(line)) - len([]rune(name))

		switch {
		case indent > lastIndent:
			open = append(open, level{name: lastName, indent: lastIndent})
		case indent < lastIndent:
			for indent < lastIndent {
				top := open[len(open)-1]
				open = open[:len(open)-1]
				lastIndent = top.indent
			}
			if indent != lastIndent {
				return nil, fmt.Errorf("%w: line %d", ErrIndentation, lineNo)
			}
		}

		result = append(result, TreePair{Name: name, Parent: open[len(open)-1].name})
		lastName = name
		lastIndent = indent
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	return result, nil
}
