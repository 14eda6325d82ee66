package format

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const extensions = parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock

func parse(md string) ast.Node {
	return parser.NewWithExtensions(extensions).Parse([]byte(md))
}

// MarkdownToHTML renders model output for email.
func MarkdownToHTML(md string) string {
	opts := html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank}
	return string(markdown.Render(parse(md), html.NewRenderer(opts)))
}

// MarkdownToMrkdwn converts model output to Slack's mrkdwn dialect.
func MarkdownToMrkdwn(md string) string {
	out := markdown.Render(parse(md), &mrkdwnRenderer{})
	return strings.TrimSpace(string(out))
}

// mrkdwnRenderer implements markdown.Renderer for Slack message text.
type mrkdwnRenderer struct{}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (r *mrkdwnRenderer) RenderHeader(io.Writer, ast.Node) {}
func (r *mrkdwnRenderer) RenderFooter(io.Writer, ast.Node) {}

func (r *mrkdwnRenderer) RenderNode(w io.Writer, node ast.Node, entering bool) ast.WalkStatus {
	switch n := node.(type) {
	case *ast.Text:
		text := string(n.Literal)
		if inBlockQuote(node) {
			text = strings.ReplaceAll(text, "\n", "\n> ")
		}
		mrkdwnEscaper.WriteString(w, text)
	case *ast.Softbreak, *ast.Hardbreak:
		io.WriteString(w, "\n")
		if inBlockQuote(node) {
			io.WriteString(w, "> ")
		}
	case *ast.Emph:
		io.WriteString(w, "_")
	case *ast.Strong:
		io.WriteString(w, "*")
	case *ast.Del:
		io.WriteString(w, "~")
	case *ast.Code:
		fmt.Fprintf(w, "`%s`", mrkdwnEscaper.Replace(string(n.Literal)))
	case *ast.CodeBlock:
		fmt.Fprintf(w, "```\n%s```\n\n", mrkdwnEscaper.Replace(string(ensureNewline(n.Literal))))
	case *ast.HTMLSpan:
		mrkdwnEscaper.WriteString(w, string(n.Literal))
	case *ast.HTMLBlock:
		mrkdwnEscaper.WriteString(w, strings.TrimSpace(string(n.Literal)))
		io.WriteString(w, "\n\n")
	case *ast.TableCell:
		if entering && !isFirstChild(node) {
			io.WriteString(w, " | ")
		}
	case *ast.TableRow:
		if !entering {
			io.WriteString(w, "\n")
		}
	case *ast.Table:
		if !entering {
			io.WriteString(w, "\n")
		}
	case *ast.Link:
		if entering {
			fmt.Fprintf(w, "<%s|", n.Destination)
		} else {
			io.WriteString(w, ">")
		}
	case *ast.Image:
		if entering {
			fmt.Fprintf(w, "<%s|", n.Destination)
		} else {
			io.WriteString(w, ">")
		}
	case *ast.Heading:
		if entering {
			io.WriteString(w, "*")
		} else {
			io.WriteString(w, "*\n\n")
		}
	case *ast.Paragraph:
		if entering {
			if inBlockQuote(node) {
				io.WriteString(w, "> ")
			}
			return ast.GoToNext
		}
		if _, ok := node.GetParent().(*ast.ListItem); ok {
			io.WriteString(w, "\n")
		} else {
			io.WriteString(w, "\n\n")
		}
	case *ast.ListItem:
		if entering {
			io.WriteString(w, strings.Repeat("    ", listDepth(node)-1))
			io.WriteString(w, listMarker(n))
		}
	case *ast.List:
		// A nested list ends inside its parent item.
		if !entering {
			if _, nested := node.GetParent().(*ast.ListItem); !nested {
				io.WriteString(w, "\n")
			}
		}
	case *ast.HorizontalRule:
		io.WriteString(w, "---\n\n")
	}
	return ast.GoToNext
}

func ensureNewline(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(bytes.Clone(b), '\n')
}

func inBlockQuote(node ast.Node) bool {
	for p := node.GetParent(); p != nil; p = p.GetParent() {
		if _, ok := p.(*ast.BlockQuote); ok {
			return true
		}
	}
	return false
}

func isFirstChild(node ast.Node) bool {
	parent := node.GetParent()
	if parent == nil {
		return true
	}
	children := parent.GetChildren()
	return len(children) > 0 && children[0] == node
}

func listDepth(node ast.Node) int {
	depth := 0
	for p := node.GetParent(); p != nil; p = p.GetParent() {
		if _, ok := p.(*ast.List); ok {
			depth++
		}
	}
	return depth
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.GetParent().(*ast.List)
	if !ok || list.ListFlags&ast.ListTypeOrdered == 0 {
		return "• "
	}
	start := list.Start
	if start == 0 {
		start = 1
	}
	for i, child := range list.GetChildren() {
		if child == ast.Node(item) {
			return fmt.Sprintf("%d. ", start+i)
		}
	}
	return "• "
}
