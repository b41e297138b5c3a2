package resolver

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// stripMarkdown removes any markdown emphasis/link syntax the contextual-
// guessing oracle's response may carry - LLM output commonly wraps a
// journal title in *italics* or a source in [text](url) - by walking the
// parsed AST the way the teacher's PDF renderer walks goldmark's AST,
// rather than regexing the syntax out.
func stripMarkdown(s string) string {
	if s == "" || !strings.ContainsAny(s, "*_[]`") {
		return s
	}

	source := []byte(s)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	if b.Len() == 0 {
		return s
	}
	return strings.TrimSpace(b.String())
}
