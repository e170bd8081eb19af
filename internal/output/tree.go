package output

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	branchMid  = "├── "
	branchEnd  = "└── "
	indentBar  = "│   "
	indentNone = "    "

	// descColumn is the display column descriptions start at.
	descColumn = 30
)

// TreeNode is one entry of a rendered file tree.
type TreeNode struct {
	Name        string
	Description string
	IsDir       bool
	Children    []*TreeNode

	index map[string]*TreeNode
}

func (n *TreeNode) child(name string, dir bool) *TreeNode {
	if n.index == nil {
		n.index = map[string]*TreeNode{}
	}
	c, ok := n.index[name]
	if !ok {
		c = &TreeNode{Name: name, IsDir: dir}
		n.index[name] = c
		n.Children = append(n.Children, c)
	}
	return c
}

// sort orders directories before files, then by name, at every level.
func (n *TreeNode) sort() {
	slices.SortFunc(n.Children, func(a, b *TreeNode) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for _, c := range n.Children {
		c.sort()
	}
}

// RenderFileTree renders files, a map of slash-separated relative paths to
// descriptions, as a tree under rootName. Descriptions are aligned.
func RenderFileTree(rootName string, files map[string]string) string {
	if len(files) == 0 {
		return ""
	}

	root := &TreeNode{Name: rootName, IsDir: true}
	for p, desc := range files {
		parts := strings.Split(strings.Trim(p, "/"), "/")
		node := root
		for i, part := range parts {
			node = node.child(part, i < len(parts)-1)
		}
		node.Description = desc
	}
	root.sort()

	var sb strings.Builder
	sb.WriteString(StyleBold.Render(rootName + "/"))
	sb.WriteByte('\n')
	writeChildren(&sb, root, "")
	return sb.String()
}

func writeChildren(sb *strings.Builder, node *TreeNode, indent string) {
	for i, c := range node.Children {
		last := i == len(node.Children)-1

		branch, next := branchMid, indentBar
		if last {
			branch, next = branchEnd, indentNone
		}

		line := indent + branch + c.Name
		if c.IsDir {
			line += "/"
		}
		if c.Description != "" {
			pad := max(descColumn-lipgloss.Width(line), 2)
			line += strings.Repeat(" ", pad) + StyleMuted.Render(c.Description)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')

		writeChildren(sb, c, indent+next)
	}
}

// RenderSimpleTree renders paths as a tree without descriptions.
func RenderSimpleTree(rootName string, files []string) string {
	m := make(map[string]string, len(files))
	for _, f := range files {
		m[f] = ""
	}
	return RenderFileTree(rootName, m)
}
