package render

import (
	"html"
	"strings"
)

// Fallback is the minimal Markdown subset used when no Markdown engine is
// wanted: "## " and "### " headings, "- " bullets grouped into a list,
// blank-line separated paragraphs and <br> for single newlines. Input is
// HTML-escaped first. Pure and deterministic.
func Fallback(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		renderBlock(&out, block)
	}
	return out.String()
}

func renderBlock(out *strings.Builder, block string) {
	var (
		para   []string
		inList bool
	)

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		out.WriteString("<p>")
		out.WriteString(strings.Join(para, "<br>"))
		out.WriteString("</p>")
		para = nil
	}
	closeList := func() {
		if inList {
			out.WriteString("</ul>")
			inList = false
		}
	}

	for _, line := range strings.Split(block, "\n") {
		escaped := html.EscapeString(line)
		switch {
		case strings.HasPrefix(line, "### "):
			flushPara()
			closeList()
			out.WriteString("<h3>" + strings.TrimSpace(escaped[4:]) + "</h3>")
		case strings.HasPrefix(line, "## "):
			flushPara()
			closeList()
			out.WriteString("<h2>" + strings.TrimSpace(escaped[3:]) + "</h2>")
		case strings.HasPrefix(line, "- "):
			flushPara()
			if !inList {
				out.WriteString("<ul>")
				inList = true
			}
			out.WriteString("<li>" + strings.TrimSpace(escaped[2:]) + "</li>")
		case strings.TrimSpace(line) == "":
			// stray whitespace-only line inside a block
		default:
			closeList()
			para = append(para, escaped)
		}
	}

	flushPara()
	closeList()
}
