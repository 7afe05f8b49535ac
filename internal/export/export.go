// Package export renders a single note as a downloadable text, Markdown or HTML file.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/files"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// Format is a single-note export format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "txt", "md" or "html" (case-insensitive, leading dot allowed).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatText, FormatMarkdown, FormatHTML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unsupported export format %q (want txt, md or html)", s))
}

// ContentType returns the MIME type for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename is the sanitized "<title>.<ext>" for a note.
func Filename(n *note.Note, f Format) string {
	return files.SanitizeFilename(n.Title) + "." + string(f)
}

// Render produces the file body for n in format f.
func Render(n *note.Note, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(Text(n)), nil
	case FormatMarkdown:
		return []byte(Markdown(n)), nil
	case FormatHTML:
		return HTML(n)
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported export format %q", f))
}

// Text is the plain-text layout: title, transcript, summary.
func Text(n *note.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", n.Title)
	fmt.Fprintf(&b, "Transcript:\n%s\n", transcript.PlainText(n.Transcript))
	if summary := transcript.PlainText(n.Summary); summary != "" {
		fmt.Fprintf(&b, "\nSummary:\n%s\n", summary)
	}
	return b.String()
}

// Markdown lays the note out with headings. Transcript lines keep their
// speaker labels; summary lines are written as-is so bullet summaries stay lists.
func Markdown(n *note.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	if len(n.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(n.Tags, ", "))
	}

	b.WriteString("## Transcript\n\n")
	for _, line := range strings.Split(transcript.PlainText(n.Transcript), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString(line)
			b.WriteString("\n\n")
		}
	}

	if summary := transcript.PlainText(n.Summary); summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	return b.String()
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var htmlDoc = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 46rem; margin: 2rem auto; line-height: 1.5; }
h1 { border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders the Markdown layout into a self-contained HTML document.
func HTML(n *note.Note) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(n)), &body); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("render markdown: %w", err))
	}

	var out bytes.Buffer
	err := htmlDoc.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{n.Title, template.HTML(body.String())})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return out.Bytes(), nil
}
