package transcript

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// SegmentClass marks the span of one finalized segment.
const SegmentClass = "transcript-segment"

// Segment is one finalized utterance. Segments are immutable once appended.
type Segment struct {
	Text        string `json:"text"`
	TimestampMS int64  `json:"timestamp_ms"`
	// Speaker is 1 or 2 when diarization labelled the segment, 0 otherwise.
	Speaker int `json:"speaker,omitempty"`
}

// Label returns the visible speaker prefix, or "" for unlabelled segments.
func (s Segment) Label() string {
	if s.Speaker == 0 {
		return ""
	}
	return fmt.Sprintf("Speaker %d: ", s.Speaker)
}

// Render serializes a segment as a span carrying its timestamp.
func Render(s Segment) string {
	var b strings.Builder
	b.WriteString(`<span class="`)
	b.WriteString(SegmentClass)
	b.WriteString(`" data-timestamp="`)
	b.WriteString(strconv.FormatInt(s.TimestampMS, 10))
	b.WriteString(`"`)
	if s.Speaker != 0 {
		b.WriteString(` data-speaker="`)
		b.WriteString(strconv.Itoa(s.Speaker))
		b.WriteString(`"`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(s.Label() + s.Text + " "))
	b.WriteString(`</span>`)
	return b.String()
}

// ParseSegments recovers the segment spans of a transcript markup in document order.
// Text outside segment spans (manual edits) is ignored.
func ParseSegments(markup string) []Segment {
	z := html.NewTokenizer(strings.NewReader(markup))
	var out []Segment
	var cur *Segment
	var text strings.Builder
	depth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out
		case html.StartTagToken:
			tok := z.Token()
			if cur != nil {
				if tok.Data == "span" {
					depth++
				}
				continue
			}
			if tok.Data != "span" || !hasClass(tok, SegmentClass) {
				continue
			}
			cur = &Segment{}
			text.Reset()
			depth = 0
			for _, a := range tok.Attr {
				switch a.Key {
				case "data-timestamp":
					cur.TimestampMS, _ = strconv.ParseInt(a.Val, 10, 64)
				case "data-speaker":
					cur.Speaker, _ = strconv.Atoi(a.Val)
				}
			}
		case html.TextToken:
			if cur != nil {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			if cur == nil {
				continue
			}
			tok := z.Token()
			if tok.Data != "span" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			t := strings.TrimSpace(text.String())
			cur.Text = strings.TrimPrefix(t, strings.TrimSpace(cur.Label()))
			cur.Text = strings.TrimSpace(cur.Text)
			out = append(out, *cur)
			cur = nil
		}
	}
}

// PlainText extracts the visible text of a markup fragment.
// Line breaks and block boundaries become newlines.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(collapseBlankLines(b.String()))
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br", "p", "div", "li":
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString("\n")
				} else if string(name) == "br" {
					b.WriteString("\n")
				}
			}
		}
	}
}

// FromPlainText turns plain text (e.g. an LLM summary) into markup with <br> line breaks.
func FromPlainText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return strings.Join(lines, "<br>")
}

func hasClass(tok html.Token, class string) bool {
	for _, a := range tok.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := 0
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
