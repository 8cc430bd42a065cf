// Package report renders pipeline exports as HTML and PDF.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// PipelineReport is the view model of the pipeline export
type PipelineReport struct {
	Title          string
	TenantName     string
	Currency       string
	GeneratedAt    time.Time
	Stages         []StageSection
	Owners         []OwnerSummary
	TotalInvestors int
	TotalCheckSize decimal.Decimal
	TotalCommitted decimal.Decimal
}

// StageSection groups the investors of one pipeline stage
type StageSection struct {
	Stage           string
	Label           string
	Count           int
	CheckSizeTotal  decimal.Decimal
	CommitmentTotal decimal.Decimal
	Investors       []InvestorLine
}

// InvestorLine is one investor row
type InvestorLine struct {
	Name         string
	Firm         string
	Type         string
	Priority     string
	Owner        string
	CheckSizeMax decimal.Decimal
	Commitment   decimal.Decimal
	NextFollowUp *time.Time
}

// OwnerSummary totals the investors worked by one team member
type OwnerSummary struct {
	Name      string
	Investors int
	Committed decimal.Decimal
}

var pipelineTemplate = template.Must(
	template.New("pipeline.html.tmpl").
		Funcs(template.FuncMap{
			"money":    FormatMoney,
			"date":     formatDate,
			"datetime": formatDateTime,
		}).
		ParseFS(templateFS, "templates/pipeline.html.tmpl"),
)

// RenderPipelineHTML renders the report as a standalone HTML document
func RenderPipelineHTML(r *PipelineReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := pipelineTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render pipeline report: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatMoney formats an amount with thousand separators. Zero renders as "-".
func FormatMoney(d decimal.Decimal) string {
	if d.IsZero() {
		return "-"
	}
	precision := 2
	if d.Equal(d.Truncate(0)) {
		precision = 0
	}
	return formatDecimalWithCommas(d, precision)
}

func formatDecimalWithCommas(d decimal.Decimal, precision int) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	s := d.StringFixed(int32(precision))
	intPart, decPart := s, ""
	if i := bytes.IndexByte([]byte(s), '.'); i >= 0 {
		intPart, decPart = s[:i], s[i:]
	}

	var result []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, c)
	}
	return sign + string(result) + decPart
}

func formatDate(v *time.Time) string {
	if v == nil || v.IsZero() {
		return "-"
	}
	return v.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04 MST")
}
