package output

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/goccy/go-json"
	"github.com/rpgo/lifedash/internal/domain"
)

// HTMLFormatter produces a standalone HTML report.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string      { return "html" }
func (h HTMLFormatter) Extension() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"dollars": FormatDollars,
	"opt":     optionalDollars,
	"json": func(v interface{}) template.JS {
		b, _ := json.Marshal(v)
		return template.JS(b)
	},
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(p *domain.Projection) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Parameters             domain.ProjectionParameters
		SocialSecurityEstimate int64
		Projection             *domain.Projection
		Summary                Summary
		Working                []domain.ProjectionRow
		Retirement             []domain.ProjectionRow
	}{p.Parameters, p.SocialSecurityEstimate, p, Summarize(p), p.Working(), p.Retirement()}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
