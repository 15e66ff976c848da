package email

import (
	"html"
	"regexp"
	"strings"
)

var (
	styleBlockRe = regexp.MustCompile(`(?is)<(style|script|head)\b[^>]*>.*?</(style|script|head)>`)
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	anchorRe     = regexp.MustCompile(`(?is)<a\b[^>]*\bhref\s*=\s*"([^"]*)"[^>]*>(.*?)</a>`)
	imgRe        = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	breakRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|li|tr|h[1-6]|table|ul|ol|blockquote)>`)
	tagRe        = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText derives a plain-text rendering from compiled HTML. Anchors keep
// both their label and their target ("label (url)"); images are dropped
// entirely, which also removes the tracking pixel from the text part.
func HTMLToText(htmlBody string) string {
	s := styleBlockRe.ReplaceAllString(htmlBody, "")
	s = commentRe.ReplaceAllString(s, "")
	s = imgRe.ReplaceAllString(s, "")

	s = anchorRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := anchorRe.FindStringSubmatch(match)
		href := strings.TrimSpace(parts[1])
		label := strings.TrimSpace(tagRe.ReplaceAllString(parts[2], ""))
		switch {
		case label == "" && href == "":
			return ""
		case label == "" || label == href:
			return href
		case href == "" || strings.HasPrefix(href, "#"):
			return label
		default:
			return label + " (" + href + ")"
		}
	})

	s = breakRe.ReplaceAllString(s, "\n")
	s = blockCloseRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
