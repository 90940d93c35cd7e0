package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Function is a declared Python routine.
type Function struct {
	Name string
	Line int
	// Implemented is false for stubs: bodies made only of pass, comments and
	// bare string literals such as docstrings.
	Implemented bool
	// Body is the source of the routine body.
	Body string
}

// PythonModule is the parsed view of a Python file.
type PythonModule struct {
	Functions   []Function
	SyntaxError bool
	// UsesArgparse is true when the module touches the argparse namespace or
	// constructs an ArgumentParser.
	UsesArgparse bool
}

// Implemented returns the routines that do real work.
func (m *PythonModule) Implemented() []Function {
	var out []Function
	for _, f := range m.Functions {
		if f.Implemented {
			out = append(out, f)
		}
	}
	return out
}

// ParsePython parses src and enumerates every routine, nested ones included.
func ParsePython(ctx context.Context, src []byte) (*PythonModule, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing Python: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	m := &PythonModule{SyntaxError: root.HasError() || rejectedByCPython(root)}
	walkPython(root, src, m)
	return m, nil
}

// rejectedByCPython finds constructs the grammar accepts that CPython 3 does
// not: Python 2 print/exec statements and statements indented differently
// from the rest of their block.
func rejectedByCPython(node *sitter.Node) bool {
	switch node.Type() {
	case "print_statement", "exec_statement":
		return true
	case "module", "block":
		if misaligned(node) {
			return true
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if rejectedByCPython(node.NamedChild(i)) {
			return true
		}
	}
	return false
}

// misaligned reports whether the statements of block that begin a line start
// at different columns. Comments and statements after a ';' are skipped.
func misaligned(block *sitter.Node) bool {
	col, lastRow := -1, -1
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		start := stmt.StartPoint()
		sameLine := int(start.Row) == lastRow
		lastRow = int(stmt.EndPoint().Row)
		if sameLine {
			continue
		}
		switch {
		case col < 0:
			col = int(start.Column)
		case int(start.Column) != col:
			return true
		}
	}
	return false
}

func walkPython(node *sitter.Node, src []byte, m *PythonModule) {
	switch node.Type() {
	case "function_definition":
		fn := Function{Line: int(node.StartPoint().Row) + 1}
		if name := node.ChildByFieldName("name"); name != nil {
			fn.Name = name.Content(src)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			fn.Body = body.Content(src)
			fn.Implemented = !isStubBody(body)
		}
		m.Functions = append(m.Functions, fn)
	case "attribute":
		if obj := node.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" && obj.Content(src) == "argparse" {
			m.UsesArgparse = true
		}
	case "call":
		if callee(node, src) == "ArgumentParser" {
			m.UsesArgparse = true
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		walkPython(node.NamedChild(i), src, m)
	}
}

// callee returns the final name segment of a call target: f() -> "f",
// a.b.f() -> "f".
func callee(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return attr.Content(src)
		}
	}
	return ""
}

func isStubBody(block *sitter.Node) bool {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		switch stmt.Type() {
		case "comment", "pass_statement":
			continue
		case "expression_statement":
			if stmt.NamedChildCount() == 1 {
				switch stmt.NamedChild(0).Type() {
				case "string", "concatenated_string":
					continue
				}
			}
		}
		return false
	}
	return true
}
