package services

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"opsflow/internal/models"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

const (
	maxAnswerScore          = 5
	recommendationThreshold = 60.0
)

type AuditReportInput struct {
	Title       string
	CompanyName string
	ClientName  string
	Answers     []models.AuditAnswer
	GeneratedAt time.Time
}

type CategoryScore struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Percent  float64 `json:"percent"`
}

type AuditReport struct {
	Title           string          `json:"title"`
	CompanyName     string          `json:"companyName"`
	ClientName      string          `json:"clientName"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	Categories      []CategoryScore `json:"categories"`
	OverallScore    float64         `json:"overallScore"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
	Recommendations []string        `json:"recommendations"`
	HTML            string          `json:"-"`
}

func RiskLevelFor(percent float64) RiskLevel {
	switch {
	case percent >= 75:
		return RiskLow
	case percent >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// GenerateAuditReport scores the questionnaire and renders it to HTML. Category averages
// are weighted by question weight, a weight of zero or less counts as one. Categories
// keep the order in which they first appear.
func GenerateAuditReport(input AuditReportInput) (*AuditReport, error) {
	if len(input.Answers) == 0 {
		return nil, fmt.Errorf("%w: answers", ErrMissingField)
	}

	type accumulator struct {
		weighted float64
		weights  float64
	}

	order := make([]string, 0)
	byCategory := make(map[string]*accumulator)
	var total accumulator

	for i, answer := range input.Answers {
		if answer.Score < 0 || answer.Score > maxAnswerScore {
			return nil, fmt.Errorf("%w: answer %d score %d outside 0-%d", ErrInvalidField, i, answer.Score, maxAnswerScore)
		}

		weight := answer.Weight
		if weight <= 0 {
			weight = 1
		}

		category := answer.Category
		if category == "" {
			category = "Général"
		}

		acc, ok := byCategory[category]
		if !ok {
			acc = &accumulator{}
			byCategory[category] = acc
			order = append(order, category)
		}

		acc.weighted += float64(answer.Score) * weight
		acc.weights += weight
		total.weighted += float64(answer.Score) * weight
		total.weights += weight
	}

	report := &AuditReport{
		Title:       input.Title,
		CompanyName: input.CompanyName,
		ClientName:  input.ClientName,
		GeneratedAt: input.GeneratedAt,
	}

	for _, category := range order {
		acc := byCategory[category]
		average := acc.weighted / acc.weights
		percent := round2(average / maxAnswerScore * 100)

		report.Categories = append(report.Categories, CategoryScore{
			Category: category,
			Average:  round2(average),
			Percent:  percent,
		})

		if percent < recommendationThreshold {
			report.Recommendations = append(report.Recommendations, recommendationFor(category, percent))
		}
	}

	report.OverallScore = round2(total.weighted / total.weights / maxAnswerScore * 100)
	report.RiskLevel = RiskLevelFor(report.OverallScore)

	var buf bytes.Buffer
	if err := auditReportTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render audit report: %w", err)
	}
	report.HTML = buf.String()

	return report, nil
}

// RenderAuditReportPDF lays out an already scored report as a PDF.
func RenderAuditReportPDF(report *AuditReport) ([]byte, error) {
	m := maroto.New(config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build())

	m.AddRows(text.NewRow(12, "Rapport d'audit", props.Text{
		Size:  18,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))
	if report.Title != "" {
		m.AddRows(text.NewRow(8, report.Title, props.Text{Size: 12, Align: align.Center}))
	}
	m.AddRow(6,
		text.NewCol(6, report.CompanyName, props.Text{Size: 9}),
		text.NewCol(6, report.GeneratedAt.Format("02/01/2006"), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRows(line.NewRow(4))

	m.AddRows(text.NewRow(8, fmt.Sprintf("Score global : %.2f %% (risque %s)", report.OverallScore, riskLabel(report.RiskLevel)),
		props.Text{Size: 12, Style: fontstyle.Bold}))

	m.AddRows(row.New(7).Add(
		text.NewCol(8, "Catégorie", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, "Moyenne /5", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
		text.NewCol(2, "Score", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	))
	for _, category := range report.Categories {
		m.AddRows(row.New(6).Add(
			text.NewCol(8, category.Category, props.Text{Size: 10}),
			text.NewCol(2, fmt.Sprintf("%.2f", category.Average), props.Text{Size: 10, Align: align.Right}),
			text.NewCol(2, fmt.Sprintf("%.0f %%", category.Percent), props.Text{Size: 10, Align: align.Right}),
		))
	}

	if len(report.Recommendations) > 0 {
		m.AddRows(line.NewRow(4))
		m.AddRows(text.NewRow(8, "Recommandations", props.Text{Size: 12, Style: fontstyle.Bold}))
		for _, recommendation := range report.Recommendations {
			m.AddRows(text.NewRow(6, "- "+recommendation, props.Text{Size: 10}))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate audit report pdf: %w", err)
	}

	return doc.GetBytes(), nil
}

func recommendationFor(category string, percent float64) string {
	return fmt.Sprintf("%s : score de %.0f %%, un plan d'action prioritaire est recommandé.", category, percent)
}

func riskLabel(level RiskLevel) string {
	switch level {
	case RiskLow:
		return "faible"
	case RiskMedium:
		return "modéré"
	default:
		return "élevé"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var auditReportTemplate = template.Must(template.New("audit_report").Funcs(template.FuncMap{
	"risk": riskLabel,
	"pct":  func(v float64) string { return fmt.Sprintf("%.0f", v) },
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Rapport d'audit</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
<h1>Rapport d'audit{{if .Title}} : {{.Title}}{{end}}</h1>
<p>{{if .CompanyName}}{{.CompanyName}} · {{end}}{{if .ClientName}}{{.ClientName}} · {{end}}{{.GeneratedAt.Format "02/01/2006"}}</p>
<h2>Score global : {{printf "%.2f" .OverallScore}} % (risque {{risk .RiskLevel}})</h2>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Catégorie</th><th>Moyenne /5</th><th>Score</th></tr>
{{range .Categories}}<tr><td>{{.Category}}</td><td>{{printf "%.2f" .Average}}</td><td>{{pct .Percent}} %</td></tr>
{{end}}</table>
{{if .Recommendations}}<h2>Recommandations</h2>
<ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>{{end}}
</body></html>`))

// AuditReportInputFrom builds the generator input from a stored audit.
func AuditReportInputFrom(audit *models.Audit, generatedAt time.Time) (AuditReportInput, error) {
	answers, err := audit.AnswerList()
	if err != nil {
		return AuditReportInput{}, fmt.Errorf("%w: answers: %v", ErrInvalidField, err)
	}

	input := AuditReportInput{
		Title:       audit.Title,
		Answers:     answers,
		GeneratedAt: generatedAt,
	}
	if audit.Company != nil {
		input.CompanyName = audit.Company.Name
	}
	if audit.Client != nil {
		input.ClientName = audit.Client.FullName
	}

	return input, nil
}
