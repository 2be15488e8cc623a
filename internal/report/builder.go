// Package report turns a submission into a human-readable report and
// delivers it: an SVG score chart, a goldmark-rendered HTML document, and
// sinks that post or store the result.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/submission"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Document is an assembled report.
type Document struct {
	Title       string
	Filename    string
	ContentType string
	Markdown    []byte
	HTML        []byte
}

// Builder assembles report documents. It is safe for concurrent use.
type Builder struct {
	md goldmark.Markdown
}

// NewBuilder creates a Builder with GitHub-flavoured tables enabled.
func NewBuilder() *Builder {
	return &Builder{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;max-width:860px;margin:2em auto;color:#212121}
table{border-collapse:collapse}th,td{border:1px solid #cfd8dc;padding:4px 10px}
blockquote{color:#546e7a;border-left:3px solid #cfd8dc;margin-left:0;padding-left:1em}
</style>
</head>
<body>
{{.Body}}
{{- if .ChartURI}}
<figure><img alt="{{.ChartAlt}}" src="{{.ChartURI}}"></figure>
{{- end}}
{{.Answers}}
</body>
</html>
`))

type page struct {
	Lang     string
	Title    string
	Body     template.HTML
	ChartAlt string
	ChartURI template.URL
	Answers  template.HTML
}

// Build renders req into a Document. The chart, when present, is embedded
// as a data URI between the score table and the answers.
func (b *Builder) Build(req submission.ReportRequest) (*Document, error) {
	labels := models.LabelsFor(req.Language)
	summary, answers := b.markdown(req, labels)

	var summaryHTML, answersHTML bytes.Buffer
	if err := b.md.Convert(summary, &summaryHTML); err != nil {
		return nil, fmt.Errorf("render report summary: %w", err)
	}
	if err := b.md.Convert(answers, &answersHTML); err != nil {
		return nil, fmt.Errorf("render report answers: %w", err)
	}

	p := page{
		Lang:     string(req.Language),
		Title:    labels.ReportTitle,
		Body:     template.HTML(summaryHTML.String()),
		ChartAlt: labels.ChartTitle,
		Answers:  template.HTML(answersHTML.String()),
	}
	if req.Chart != nil && len(req.Chart.Data) > 0 {
		p.ChartURI = template.URL("data:" + req.Chart.MIMEType + ";base64," +
			base64.StdEncoding.EncodeToString(req.Chart.Data))
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, p); err != nil {
		return nil, fmt.Errorf("render report page: %w", err)
	}

	md := make([]byte, 0, len(summary)+len(answers)+1)
	md = append(md, summary...)
	md = append(md, '\n')
	md = append(md, answers...)

	return &Document{
		Title:       labels.ReportTitle,
		Filename:    Filename(req.Payload),
		ContentType: "text/html; charset=utf-8",
		Markdown:    md,
		HTML:        out.Bytes(),
	}, nil
}

// Filename names the report file for a payload.
func Filename(p models.SubmissionPayload) string {
	return "dora-report-" + p.ID + ".html"
}

func (b *Builder) markdown(req submission.ReportRequest, l models.Labels) (summary, answers []byte) {
	p := req.Payload
	var s bytes.Buffer

	fmt.Fprintf(&s, "# %s\n\n", inline(l.ReportTitle))
	fmt.Fprintf(&s, "- **%s:** %s\n", l.Respondent, inline(p.Identity.UserName))
	fmt.Fprintf(&s, "- **%s:** %s\n", l.Provider, inline(p.Identity.ProviderName))
	fmt.Fprintf(&s, "- **%s:** %s\n", l.FinancialEntity, inline(p.Identity.FinancialEntityName))
	fmt.Fprintf(&s, "- **%s:** %s\n\n", l.SubmittedAt, inline(p.SubmittedAt))

	fmt.Fprintf(&s, "## %s\n\n", l.ScoresHeading)
	fmt.Fprintf(&s, "| %s | %s | %s |\n|---|---:|---:|\n", l.Category, l.Score, l.Answered)
	for _, sc := range req.Scores {
		score := l.NoData
		if pct, ok := sc.Percent(); ok {
			score = fmt.Sprintf("%s (%.0f%%)", formatValue(sc.Mean), pct)
		} else if sc.HasData {
			score = formatValue(sc.Mean)
		}
		fmt.Fprintf(&s, "| %s | %s | %d/%d |\n", inline(sc.Label), score, sc.Answered, sc.Total)
	}

	var a bytes.Buffer
	if req.Catalog == nil {
		return s.Bytes(), a.Bytes()
	}

	// Questions keep the number the respondent saw, even when a category's
	// questions are not contiguous in the catalog.
	number := make(map[string]int, len(req.Catalog.Questions))
	for i, q := range req.Catalog.Questions {
		number[q.ID] = i + 1
	}

	fmt.Fprintf(&a, "## %s\n\n", l.AnswersHeading)
	for _, cat := range req.Catalog.Categories {
		questions := req.Catalog.QuestionsIn(cat.ID)
		if len(questions) == 0 {
			continue
		}
		fmt.Fprintf(&a, "### %s\n\n", inline(cat.Name.In(req.Language)))
		for _, q := range questions {
			prompt := models.FillPlaceholders(q.Prompt.In(req.Language), p.Identity)
			fmt.Fprintf(&a, "**%d. %s**\n\n", number[q.ID], inline(prompt))

			if v, ok := p.Answers[q.ID]; ok {
				answer := formatValue(v)
				if label := q.OptionLabel(v, req.Language); label != "" {
					answer = inline(label) + " (" + answer + ")"
				}
				fmt.Fprintf(&a, "%s: %s\n\n", l.Answer, answer)
			} else {
				fmt.Fprintf(&a, "%s: _%s_\n\n", l.Answer, l.Unanswered)
			}

			if obs, ok := p.Observations[q.ID]; ok && strings.TrimSpace(obs) != "" {
				fmt.Fprintf(&a, "> **%s:** %s\n\n", l.Observation, inline(obs))
			}
		}
	}
	return s.Bytes(), a.Bytes()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`,
	"\r\n", " ", "\n", " ",
)

// inline escapes respondent-supplied text so it renders literally on one line.
func inline(s string) string {
	return markdownEscaper.Replace(s)
}
