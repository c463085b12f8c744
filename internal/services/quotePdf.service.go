package services

import (
	"fmt"
	"time"

	"opsflow/internal/models"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type QuoteTotals struct {
	HT  decimal.Decimal `json:"totalHt"`
	TVA decimal.Decimal `json:"totalTva"`
	TTC decimal.Decimal `json:"totalTtc"`
}

// ComputeQuoteTotals sums the line items and applies vatRate (a percentage). Each total
// is rounded to the cent, and TTC is always HT + TVA after rounding.
func ComputeQuoteTotals(items []models.QuoteLineItem, vatRate decimal.Decimal) QuoteTotals {
	ht := decimal.Zero
	for _, item := range items {
		ht = ht.Add(item.Total())
	}
	ht = ht.Round(2)
	tva := ht.Mul(vatRate).Div(hundred).Round(2)

	return QuoteTotals{HT: ht, TVA: tva, TTC: ht.Add(tva)}
}

type PartyInfo struct {
	Name    string
	Address string
	Email   string
	Phone   string
	Siret   string
}

type QuotePDFInput struct {
	Reference  string
	IssuedAt   time.Time
	ValidUntil *time.Time
	Company    PartyInfo
	Client     PartyInfo
	Title      string
	Items      []models.QuoteLineItem
	VatRate    decimal.Decimal
}

// GenerateQuotePDF renders the quote document. It has no side effects; uploading the
// result is the caller's job.
func GenerateQuotePDF(input QuotePDFInput) ([]byte, error) {
	if input.Reference == "" {
		return nil, fmt.Errorf("%w: reference", ErrMissingField)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: line items", ErrMissingField)
	}

	totals := ComputeQuoteTotals(input.Items, input.VatRate)

	m := maroto.New(config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build())

	bold := props.Text{Style: fontstyle.Bold, Size: 10}
	right := props.Text{Align: align.Right, Size: 10}
	boldRight := props.Text{Style: fontstyle.Bold, Align: align.Right, Size: 10}

	m.AddRows(text.NewRow(12, "DEVIS "+input.Reference, props.Text{
		Size:  18,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))

	issued := "Émis le " + input.IssuedAt.Format("02/01/2006")
	validity := ""
	if input.ValidUntil != nil {
		validity = "Valable jusqu'au " + input.ValidUntil.Format("02/01/2006")
	}
	m.AddRow(6,
		text.NewCol(6, issued, props.Text{Size: 9}),
		text.NewCol(6, validity, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRows(line.NewRow(4))

	m.AddRows(partyRows(input.Company, input.Client)...)
	m.AddRows(line.NewRow(4))

	if input.Title != "" {
		m.AddRows(text.NewRow(8, "Objet : "+input.Title, bold))
	}

	m.AddRows(row.New(8).Add(
		text.NewCol(6, "Désignation", bold),
		text.NewCol(2, "Qté", boldRight),
		text.NewCol(2, "PU HT", boldRight),
		text.NewCol(2, "Total HT", boldRight),
	))

	for _, item := range input.Items {
		m.AddRows(row.New(7).Add(
			text.NewCol(6, item.Description, props.Text{Size: 10}),
			text.NewCol(2, item.Quantity.String(), right),
			text.NewCol(2, item.UnitPrice.StringFixed(2), right),
			text.NewCol(2, item.Total().StringFixed(2), right),
		))
	}

	m.AddRows(line.NewRow(4))
	m.AddRows(
		totalRow("Total HT", totals.HT, right),
		totalRow("TVA "+input.VatRate.String()+" %", totals.TVA, right),
		totalRow("Total TTC", totals.TTC, boldRight),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote pdf: %w", err)
	}

	return doc.GetBytes(), nil
}

func partyRows(company, client PartyInfo) []core.Row {
	left := []string{company.Name, company.Address, company.Siret}
	rightLines := []string{client.Name, client.Email, client.Phone}

	rows := []core.Row{
		row.New(7).Add(
			text.NewCol(6, "Société", props.Text{Style: fontstyle.Bold, Size: 10}),
			text.NewCol(6, "Client", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
		),
	}
	for i := range left {
		if left[i] == "" && rightLines[i] == "" {
			continue
		}
		rows = append(rows, row.New(5).Add(
			text.NewCol(6, left[i], props.Text{Size: 9}),
			text.NewCol(6, rightLines[i], props.Text{Size: 9, Align: align.Right}),
		))
	}
	return rows
}

func totalRow(label string, amount decimal.Decimal, style props.Text) core.Row {
	return row.New(7).Add(
		text.NewCol(8, ""),
		text.NewCol(2, label, style),
		text.NewCol(2, amount.StringFixed(2)+" EUR", style),
	)
}
