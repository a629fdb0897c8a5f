package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

var mdParser = goldmark.DefaultParser()

// canonicalizeMarkdown strips markdown block/inline syntax (headings,
// emphasis markers, link brackets, list bullets) via a goldmark parse and
// AST walk, so the pattern catalogue and the ±150-char snippet window both
// run against plain prose instead of the raw markdown the fetch pipeline's
// html-to-markdown conversion produces. Block boundaries become a single
// space, keeping byte offsets stable for the sentence splitter that runs
// after this.
func canonicalizeMarkdown(src string) string {
	source := []byte(src)
	doc := mdParser.Parse(gtext.NewReader(source))

	var b strings.Builder
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case gast.KindParagraph, gast.KindHeading, gast.KindListItem, gast.KindBlockquote:
				b.WriteByte(' ')
			}
			return gast.WalkContinue, nil
		}

		if n.Kind() == gast.KindText {
			t := n.(*gast.Text)
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return gast.WalkContinue, nil
	})

	return collapseWhitespace(b.String())
}
