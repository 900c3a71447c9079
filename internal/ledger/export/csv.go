// Package export renders customer statements as CSV and PDF downloads.
// It holds its own row model so callers in any package can feed it.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Row is one printable statement line.
type Row struct {
	Date        string
	Description string
	Items       string
	Quantity    int
	Amount      float64
}

// Statement carries everything the exporters need to render a download.
type Statement struct {
	CustomerName    string
	CustomerMobile  string
	CustomerAddress string
	Rows            []Row
}

// Total sums the row amounts.
func (s Statement) Total() float64 {
	total := 0.0
	for _, r := range s.Rows {
		total += r.Amount
	}
	return total
}

// WriteStatementCSV serialises a customer statement to CSV. Every record
// is padded to the table width so strict readers accept the file.
func WriteStatementCSV(w io.Writer, st Statement) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Customer", st.CustomerName, "", "", ""}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Mobile", st.CustomerMobile, "", "", ""}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Date", "Description", "Items", "Quantity", "Amount"}); err != nil {
		return err
	}
	for _, r := range st.Rows {
		if err := writer.Write([]string{
			r.Date,
			r.Description,
			r.Items,
			strconv.Itoa(r.Quantity),
			formatFloat(r.Amount),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "", "", "Total", formatFloat(st.Total())}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
