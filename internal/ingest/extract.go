package ingest

import (
	"html"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"

	apperrors "github.com/spec-kit/mailroom/pkg/util/errorutil"
)

// quotedHistoryPatterns mark the start of quoted thread history. Checked in
// order; the first pattern that matches anywhere truncates the body there.
var quotedHistoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*On .{0,200}wrote:\s*$`),
	regexp.MustCompile(`(?m)^\s*(From|Sent|To|Subject):[ \t]`),
	regexp.MustCompile(`(?m)^\s*>`),
	regexp.MustCompile(`(?mi)^\s*-{2,}\s*Original Message\s*-{2,}\s*$`),
	regexp.MustCompile(`(?m)^\s*_{8,}\s*$`),
}

// signaturePatterns trim trailing signature blocks after history removal.
var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^--\s*$`),
	regexp.MustCompile(`(?mi)^Sent from my .*$`),
	regexp.MustCompile(`(?mi)^(Best regards|Kind regards|Regards|Thanks|Thank you|Cheers),?\s*$`),
}

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// ExtractReply reduces a parsed message body to the portion the sender
// actually wrote. A body that is blank after stripping is an error, never a
// valid empty reply.
func ExtractReply(msg *ParsedMessage) (string, error) {
	body := msg.PlainBody
	if strings.TrimSpace(body) == "" {
		body = htmlToText(msg.HTMLBody)
	}

	body = stripQuotedHistory(body)
	body = stripSignature(body)
	body = blankRunPattern.ReplaceAllString(body, "\n\n")
	body = strings.TrimSpace(body)

	if body == "" {
		return "", apperrors.NewEmptyContent()
	}
	return body, nil
}

func stripQuotedHistory(body string) string {
	for _, pattern := range quotedHistoryPatterns {
		if loc := pattern.FindStringIndex(body); loc != nil {
			return body[:loc[0]]
		}
	}
	return body
}

func stripSignature(body string) string {
	for _, pattern := range signaturePatterns {
		if loc := pattern.FindStringIndex(body); loc != nil {
			body = body[:loc[0]]
		}
	}
	return body
}

var (
	lineBreakTags = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
)

// htmlToText converts an HTML body to plain text, falling back to a minimal
// tag-stripping pass if the converter rejects the input.
func htmlToText(htmlBody string) string {
	if strings.TrimSpace(htmlBody) == "" {
		return ""
	}
	if text, err := html2text.FromString(htmlBody, html2text.Options{TextOnly: true}); err == nil {
		return text
	}
	text := lineBreakTags.ReplaceAllString(htmlBody, "\n")
	text = anyTag.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}
