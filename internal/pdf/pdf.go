// Package pdf renders quote and invoice documents for client download.
package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Line is a single billable row on a document.
type Line struct {
	Name      string
	Quantity  float64
	Unit      string
	UnitPrice float64
	Total     float64
}

// Party holds the identifying details printed for either side of a document.
type Party struct {
	Name    string
	Company string
	Address string
	Email   string
	Phone   string
	TaxID   string
}

// Bank holds the payment details block printed on invoices.
type Bank struct {
	Name    string
	Account string
	Routing string
}

// Document is everything needed to render one quote or invoice.
type Document struct {
	Title          string
	Number         string
	From           Party
	To             Party
	IssuedOn       string
	DateLabel      string
	Date           string
	Lines          []Line
	Subtotal       float64
	DiscountPct    float64
	DiscountAmount float64
	Net            float64
	TaxPct         float64
	TaxAmount      float64
	Gross          float64
	Currency       string
	Notes          string
	Bank           *Bank
}

var (
	grayText  = props.Text{Size: 9, Color: &props.Color{Red: 100, Green: 100, Blue: 100}}
	cellText  = props.Text{Size: 9}
	rightCell = props.Text{Size: 9, Align: align.Right}
	headText  = props.Text{Size: 9, Style: fontstyle.Bold}
	headRight = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
)

// Render produces the PDF bytes for doc.
func Render(doc Document) ([]byte, error) {
	m := newMaroto()
	buildHeader(m, doc)
	buildParties(m, doc)
	buildTable(m, doc)
	buildTotals(m, doc)
	buildFooter(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func newMaroto() core.Maroto {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	return maroto.New(cfg)
}

func buildHeader(m core.Maroto, doc Document) {
	m.AddRow(12,
		text.NewCol(8, doc.Title, props.Text{Size: 20, Style: fontstyle.Bold}),
		text.NewCol(4, doc.Number, props.Text{Size: 12, Align: align.Right, Top: 3}),
	)
	m.AddRow(6,
		text.NewCol(8, "Issued "+doc.IssuedOn, grayText),
		text.NewCol(4, doc.DateLabel+" "+doc.Date, props.Text{Size: 9, Align: align.Right, Color: grayText.Color}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{SizePercent: 100}))
}

func buildParties(m core.Maroto, doc Document) {
	m.AddRow(6,
		text.NewCol(6, "From", headText),
		text.NewCol(6, "To", headText),
	)
	from := partyLines(doc.From)
	to := partyLines(doc.To)
	for len(from) < len(to) {
		from = append(from, "")
	}
	for len(to) < len(from) {
		to = append(to, "")
	}
	for i := range from {
		m.AddRow(5,
			text.NewCol(6, from[i], cellText),
			text.NewCol(6, to[i], cellText),
		)
	}
	m.AddRow(6, col.New(12))
}

func partyLines(p Party) []string {
	var out []string
	if p.Company != "" {
		out = append(out, p.Company)
	}
	if p.Name != "" {
		out = append(out, p.Name)
	}
	for _, s := range []string{p.Address, p.Email, p.Phone} {
		if s != "" {
			out = append(out, s)
		}
	}
	if p.TaxID != "" {
		out = append(out, "Tax ID: "+p.TaxID)
	}
	return out
}

func buildTable(m core.Maroto, doc Document) {
	m.AddRow(7,
		text.NewCol(5, "Item", headText),
		text.NewCol(2, "Qty", headRight),
		text.NewCol(1, "Unit", headText),
		text.NewCol(2, "Price", headRight),
		text.NewCol(2, "Total", headRight),
	)
	m.AddRow(2, line.NewCol(12, props.Line{SizePercent: 100}))
	rows := make([]core.Row, 0, len(doc.Lines))
	for _, ln := range doc.Lines {
		rows = append(rows, row.New(6).Add(
			text.NewCol(5, ln.Name, cellText),
			text.NewCol(2, trimFloat(ln.Quantity), rightCell),
			text.NewCol(1, ln.Unit, cellText),
			text.NewCol(2, money(doc.Currency, ln.UnitPrice), rightCell),
			text.NewCol(2, money(doc.Currency, ln.Total), rightCell),
		))
	}
	m.AddRows(rows...)
	m.AddRow(3, line.NewCol(12, props.Line{SizePercent: 100}))
}

func buildTotals(m core.Maroto, doc Document) {
	totalRow := func(label, value string, bold bool) {
		p := rightCell
		if bold {
			p = headRight
		}
		m.AddRow(5,
			col.New(7),
			text.NewCol(3, label, p),
			text.NewCol(2, value, p),
		)
	}
	totalRow("Subtotal", money(doc.Currency, doc.Subtotal), false)
	if doc.DiscountPct > 0 {
		totalRow(fmt.Sprintf("Discount (%s%%)", trimFloat(doc.DiscountPct)), "-"+money(doc.Currency, doc.DiscountAmount), false)
		totalRow("Net", money(doc.Currency, doc.Net), false)
	}
	if doc.TaxPct > 0 {
		totalRow(fmt.Sprintf("Tax (%s%%)", trimFloat(doc.TaxPct)), money(doc.Currency, doc.TaxAmount), false)
	}
	totalRow("Total due", money(doc.Currency, doc.Gross), true)
}

func buildFooter(m core.Maroto, doc Document) {
	if doc.Bank != nil {
		m.AddRow(8, col.New(12))
		m.AddRow(6, text.NewCol(12, "Payment details", headText))
		if doc.Bank.Name != "" {
			m.AddRow(5, text.NewCol(12, "Bank: "+doc.Bank.Name, cellText))
		}
		if doc.Bank.Account != "" {
			m.AddRow(5, text.NewCol(12, "Account: "+doc.Bank.Account, cellText))
		}
		if doc.Bank.Routing != "" {
			m.AddRow(5, text.NewCol(12, "Routing: "+doc.Bank.Routing, cellText))
		}
	}
	if doc.Notes != "" {
		m.AddRow(8, col.New(12))
		m.AddRow(6, text.NewCol(12, "Notes", headText))
		m.AddRow(10, text.NewCol(12, doc.Notes, cellText))
	}
}

func money(symbol string, v float64) string {
	return fmt.Sprintf("%s%.2f", symbol, v)
}

// trimFloat drops a trailing ".00" so quantities like 3 print as "3".
func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
