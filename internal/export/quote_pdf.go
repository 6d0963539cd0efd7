package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type quotePDFData struct {
	Number       string
	Title        string
	Version      int32
	Status       string
	IssueDate    string
	ExpiresAt    string
	PaymentTerms string

	ClientName    string
	ClientCompany string
	ClientAddress string
	ClientEmail   string
	ProjectName   string

	Lines      []quotePDFLine
	Transverse []transversePDFLine

	TotalDays string
	TotalHT   string
	VAT       string
	TotalTTC  string
}

type quotePDFLine struct {
	Profile   string
	Days      string
	DailyRate string
	AmountHT  string
}

type transversePDFLine struct {
	Level   int32
	Name    string
	Profile string
	Detail  string
}

func renderQuotePDF(data quotePDFData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Devis "+data.Number, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, data.Title, props.Text{Size: 12}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New(fmt.Sprintf("Version: %d", data.Version), props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Valid until: "+data.ExpiresAt, props.Text{Top: 8}),
			text.New("Payment terms: "+data.PaymentTerms, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Client", props.Text{Style: fontstyle.Bold}),
			text.New(data.ClientName, props.Text{Top: 5}),
			text.New(data.ClientCompany, props.Text{Top: 9}),
			text.New(data.ClientAddress, props.Text{Top: 13}),
			text.New(data.ClientEmail, props.Text{Top: 17}),
		),
	)

	m.AddRow(10,
		text.NewCol(12, "Project: "+data.ProjectName, props.Text{Size: 10}),
	)

	// Table header
	m.AddRow(10,
		text.NewCol(6, "Profile", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Days", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Daily rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount HT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(6, line.Profile, props.Text{Size: 9}),
			text.NewCol(2, line.Days, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.DailyRate, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.AmountHT, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if len(data.Transverse) > 0 {
		m.AddRow(10,
			text.NewCol(12, "Transverse activities", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2}),
		)
		for _, line := range data.Transverse {
			m.AddRow(8,
				text.NewCol(1, fmt.Sprintf("%d", line.Level), props.Text{Size: 9}),
				text.NewCol(5, line.Name, props.Text{Size: 9}),
				text.NewCol(3, line.Profile, props.Text{Size: 9}),
				text.NewCol(3, line.Detail, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total days", props.Text{Size: 9, Top: 2}),
		text.NewCol(2, data.TotalDays, props.Text{Size: 9, Align: align.Right, Top: 2}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total HT", props.Text{Size: 9}),
		text.NewCol(2, data.TotalHT, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "VAT (20%)", props.Text{Size: 9}),
		text.NewCol(2, data.VAT, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total TTC", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.TotalTTC, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
