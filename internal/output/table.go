package output

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"portal-client/internal/domain"
)

// Table collects rows and renders them borderless.
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a table on the printer's output. Tables are results and
// render in quiet mode too.
func (p *Printer) NewTable(headers []string) *Table {
	return NewTableWithWriter(p.out, headers)
}

// NewTableWithWriter creates a new table with a custom writer
func NewTableWithWriter(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{table: table, header: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added so far.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render outputs the table
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	return t.table.Render()
}

// Products renders a product listing.
func (p *Printer) Products(products []domain.Product) error {
	t := p.NewTable([]string{"ID", "NAME", "PRICE", "DESCRIPTION"})
	for _, pr := range products {
		price := pr.PriceDisplay
		if price == "" {
			price = string(pr.Price)
		}
		t.AddRow(strconv.Itoa(pr.ID), pr.Name, price, truncate(pr.Description, 48))
	}
	return t.Render()
}

// Downloads renders a download listing.
func (p *Printer) Downloads(downloads []domain.Download) error {
	t := p.NewTable([]string{"ID", "TITLE", "CATEGORY", "FILE", "SIZE", "DOWNLOADS"})
	for _, d := range downloads {
		category := d.CategoryDisplay
		if category == "" {
			category = d.Category
		}
		t.AddRow(strconv.Itoa(d.ID), d.Title, category, d.FileName, d.FileSizeDisplay, strconv.Itoa(d.DownloadCount))
	}
	return t.Render()
}

// KeyValues renders two-column rows in the given order.
func (p *Printer) KeyValues(rows [][2]string) error {
	t := p.NewTable([]string{"KEY", "VALUE"})
	for _, r := range rows {
		t.AddRow(r[0], r[1])
	}
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
