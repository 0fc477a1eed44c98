package printing

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/deed.html
var templateFS embed.FS

const deedDateLayout = "January 2, 2006"

// deedView is what the deed template sees
type deedView struct {
	payout.DeedPayload
	Reference string
	Currency  string
}

// DeedTemplate renders the deed HTML document
type DeedTemplate struct {
	tmpl     *template.Template
	currency string
}

// NewDeedTemplate parses the embedded deed template
func NewDeedTemplate(currency string) (*DeedTemplate, error) {
	caser := cases.Title(language.English)
	tmpl, err := template.New("deed.html").Funcs(template.FuncMap{
		"title": func(s string) string {
			return caser.String(strings.ReplaceAll(s, "_", " "))
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.UTC().Format(deedDateLayout)
		},
	}).ParseFS(templateFS, "templates/deed.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to parse deed template", err)
	}
	return &DeedTemplate{tmpl: tmpl, currency: currency}, nil
}

// Execute returns the deed as a complete HTML document
func (t *DeedTemplate) Execute(p payout.DeedPayload) (string, error) {
	var buf bytes.Buffer
	err := t.tmpl.Execute(&buf, deedView{
		DeedPayload: p,
		Reference:   deedReference(p),
		Currency:    t.currency,
	})
	if err != nil {
		return "", NewRenderError(ErrCodeTemplate, "failed to execute deed template", err)
	}
	return buf.String(), nil
}

// deedReference is a short human readable reference derived from the investment id
func deedReference(p payout.DeedPayload) string {
	id := strings.ToUpper(strings.ReplaceAll(p.InvestmentID.String(), "-", ""))
	return "EV-" + p.StartDate.UTC().Format("200601") + "-" + id[:8]
}
