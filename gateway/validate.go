package gateway

import (
	"fmt"
	"strings"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

// validateQueryDepth rejects operations nested deeper than maxQueryDepth fields.
// Documents that fail to parse are left to the executor, which reports the syntax
// error in the usual response shape.
func (g *gateway) validateQueryDepth(query string) error {
	if g.maxQueryDepth <= 0 {
		return nil
	}

	p := parser.New(lexer.New(query))
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok && frag.Name != nil {
			fragments[frag.Name.Value] = frag
		}
	}

	for _, def := range doc.Definitions {
		opDef, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		d := &depthCounter{fragments: fragments, visiting: make(map[string]bool)}
		if depth := d.selectionDepth(opDef.SelectionSet); depth > g.maxQueryDepth {
			return fmt.Errorf("query depth %d exceeds the maximum of %d", depth, g.maxQueryDepth)
		}
	}

	return nil
}

// depthCounter measures field nesting. Fragments add no level of their own, and
// introspection fields are not counted.
type depthCounter struct {
	fragments map[string]*ast.FragmentDefinition
	visiting  map[string]bool
}

func (d *depthCounter) selectionDepth(selSet []ast.Selection) int {
	depth := 0
	for _, sel := range selSet {
		n := 0
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name != nil && strings.HasPrefix(s.Name.Value, "__") {
				continue
			}
			n = 1 + d.selectionDepth(s.SelectionSet)
		case *ast.InlineFragment:
			n = d.selectionDepth(s.SelectionSet)
		case *ast.FragmentSpread:
			n = d.spreadDepth(s)
		}
		depth = max(depth, n)
	}
	return depth
}

// spreadDepth follows a named fragment. Unknown and cyclic spreads count as zero and
// are reported by the executor.
func (d *depthCounter) spreadDepth(s *ast.FragmentSpread) int {
	if s.Name == nil {
		return 0
	}
	frag, ok := d.fragments[s.Name.Value]
	if !ok || d.visiting[s.Name.Value] {
		return 0
	}

	d.visiting[s.Name.Value] = true
	defer delete(d.visiting, s.Name.Value)
	return d.selectionDepth(frag.SelectionSet)
}
