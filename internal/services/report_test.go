package services

import (
	"bytes"
	"testing"
	"time"

	"opsflow/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		percent  float64
		expected RiskLevel
	}{
		{percent: 100, expected: RiskLow},
		{percent: 75, expected: RiskLow},
		{percent: 74.99, expected: RiskMedium},
		{percent: 50, expected: RiskMedium},
		{percent: 49.99, expected: RiskHigh},
		{percent: 0, expected: RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RiskLevelFor(tt.percent), "percent %.2f", tt.percent)
	}
}

func TestGenerateAuditReport(t *testing.T) {
	report, err := GenerateAuditReport(AuditReportInput{
		Title:       "Audit sécurité",
		CompanyName: "Acme",
		GeneratedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Answers: []models.AuditAnswer{
			{Category: "Sécurité", Question: "MFA", Score: 5, Weight: 1},
			{Category: "Sécurité", Question: "Backups", Score: 2, Weight: 2},
			{Category: "Conformité", Question: "RGPD", Score: 1, Weight: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, report.Categories, 2)
	assert.Equal(t, "Sécurité", report.Categories[0].Category)
	assert.Equal(t, 3.0, report.Categories[0].Average)
	assert.Equal(t, 60.0, report.Categories[0].Percent)
	assert.Equal(t, "Conformité", report.Categories[1].Category)
	assert.Equal(t, 20.0, report.Categories[1].Percent)

	// (5*1 + 2*2 + 1*1) / 4 = 2.5 -> 50%
	assert.Equal(t, 50.0, report.OverallScore)
	assert.Equal(t, RiskMedium, report.RiskLevel)

	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "Conformité")

	assert.Contains(t, report.HTML, "Audit sécurité")
	assert.Contains(t, report.HTML, "Recommandations")
}

func TestGenerateAuditReport_ZeroWeightCountsAsOne(t *testing.T) {
	report, err := GenerateAuditReport(AuditReportInput{
		Answers: []models.AuditAnswer{
			{Category: "A", Score: 4, Weight: 0},
			{Category: "A", Score: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, report.OverallScore)
	assert.Equal(t, "Général", mustReportCategory(t, []models.AuditAnswer{{Score: 3}}))
}

func mustReportCategory(t *testing.T, answers []models.AuditAnswer) string {
	t.Helper()
	report, err := GenerateAuditReport(AuditReportInput{Answers: answers})
	require.NoError(t, err)
	require.Len(t, report.Categories, 1)
	return report.Categories[0].Category
}

func TestGenerateAuditReport_Errors(t *testing.T) {
	_, err := GenerateAuditReport(AuditReportInput{})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = GenerateAuditReport(AuditReportInput{
		Answers: []models.AuditAnswer{{Category: "A", Score: 6}},
	})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestRenderAuditReportPDF(t *testing.T) {
	report, err := GenerateAuditReport(AuditReportInput{
		Title:   "Audit",
		Answers: []models.AuditAnswer{{Category: "A", Score: 1}},
	})
	require.NoError(t, err)

	data, err := RenderAuditReportPDF(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestComputeQuoteTotals(t *testing.T) {
	items := []models.QuoteLineItem{
		{Description: "Main d'oeuvre", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("100.00")},
		{Description: "Pièces", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("50.50")},
	}

	totals := ComputeQuoteTotals(items, decimal.NewFromInt(20))

	assert.Equal(t, "250.50", totals.HT.StringFixed(2))
	assert.Equal(t, "50.10", totals.TVA.StringFixed(2))
	assert.Equal(t, "300.60", totals.TTC.StringFixed(2))
}

func TestComputeQuoteTotals_RoundsToCents(t *testing.T) {
	items := []models.QuoteLineItem{
		{Quantity: decimal.RequireFromString("3"), UnitPrice: decimal.RequireFromString("0.335")},
	}

	totals := ComputeQuoteTotals(items, decimal.RequireFromString("5.5"))

	assert.Equal(t, "1.01", totals.HT.StringFixed(2))
	assert.Equal(t, "0.06", totals.TVA.StringFixed(2))
	assert.True(t, totals.TTC.Equal(totals.HT.Add(totals.TVA)))
}

func TestGenerateQuotePDF(t *testing.T) {
	validUntil := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	data, err := GenerateQuotePDF(QuotePDFInput{
		Reference:  "DEV-2025-001",
		IssuedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: &validUntil,
		Company:    PartyInfo{Name: "Acme"},
		Client:     PartyInfo{Name: "Camille", Email: "camille@example.com"},
		Items: []models.QuoteLineItem{
			{Description: "Pose", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(80)},
		},
		VatRate: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = GenerateQuotePDF(QuotePDFInput{Reference: "DEV-2025-002"})
	assert.ErrorIs(t, err, ErrMissingField)
}
