package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/hcl"
)

// Block is a top-level HCL block such as resource "aws_vpc" "main".
type Block struct {
	Kind   string
	Labels []string
	Line   int
}

// HCLFile is the block structure of one Terraform file.
type HCLFile struct {
	Blocks    []Block
	HasErrors bool
}

// Resources returns the resource blocks in the file.
func (f *HCLFile) Resources() []Block {
	var out []Block
	for _, b := range f.Blocks {
		if b.Kind == "resource" {
			out = append(out, b)
		}
	}
	return out
}

// ParseHCL parses Terraform source into its top-level blocks. A fresh parser
// is created per call so callers may parse concurrently.
func ParseHCL(ctx context.Context, src []byte) (*HCLFile, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(hcl.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing HCL: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	f := &HCLFile{HasErrors: root.HasError()}
	collectBlocks(root, src, &f.Blocks)
	return f, nil
}

func collectBlocks(node *sitter.Node, src []byte, out *[]Block) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "body":
			collectBlocks(child, src, out)
		case "block":
			*out = append(*out, parseBlock(child, src))
		}
	}
}

func parseBlock(node *sitter.Node, src []byte) Block {
	b := Block{Line: int(node.StartPoint().Row) + 1}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			if b.Kind == "" {
				b.Kind = child.Content(src)
			} else {
				b.Labels = append(b.Labels, child.Content(src))
			}
		case "string_lit":
			b.Labels = append(b.Labels, strings.Trim(child.Content(src), `"`))
		}
	}
	return b
}

// HCLProblem reports whether a Terraform file should be flagged as
// unparseable: it has syntax errors and carries content beyond comments.
func HCLProblem(f *HCLFile, nonCommentLines int) bool {
	return f.HasErrors && nonCommentLines > 0
}
