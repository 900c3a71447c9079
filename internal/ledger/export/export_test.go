package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatement() Statement {
	return Statement{
		CustomerName:   "Jane Doe",
		CustomerMobile: "555-0101",
		Rows: []Row{
			{Date: "2026-08-10", Description: "Sale #1", Items: "Rice x3", Quantity: 3, Amount: 150},
			{Date: "2026-08-12", Description: "festival order", Items: "Sugar x2", Quantity: 2, Amount: 60},
		},
	}
}

func TestWriteStatementCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatementCSV(&buf, sampleStatement()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)

	assert.Equal(t, []string{"Customer", "Jane Doe", "", "", ""}, records[0])
	assert.Equal(t, []string{"Mobile", "555-0101", "", "", ""}, records[1])
	assert.Equal(t, []string{"Date", "Description", "Items", "Quantity", "Amount"}, records[2])
	assert.Equal(t, []string{"2026-08-10", "Sale #1", "Rice x3", "3", "150.00"}, records[3])
	assert.Equal(t, []string{"", "", "", "Total", "210.00"}, records[5])
}

func TestWriteStatementCSVIsRectangular(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatementCSV(&buf, sampleStatement()))

	// The default reader enforces a uniform field count; a ragged file
	// would error here.
	reader := csv.NewReader(&buf)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Len(t, record, 5)
	}
}

func TestRenderStatementPostsHTMLToGotenberg(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		captured = string(data)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	pdf, err := exporter.RenderStatement(context.Background(), sampleStatement())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Contains(t, captured, "Jane Doe")
	assert.Contains(t, captured, "Rice x3")
	assert.Contains(t, captured, "210.00")
}

func TestStatementHTMLEscapesContent(t *testing.T) {
	st := sampleStatement()
	st.CustomerName = `Acme <"Traders"> & Sons`

	html := buildStatementHTML(st)
	assert.NotContains(t, html, `<"Traders">`)
	assert.Contains(t, html, "Acme &lt;&#34;Traders&#34;&gt; &amp; Sons")
}

func TestRenderStatementRequiresEndpoint(t *testing.T) {
	exporter := &PDFExporter{}
	_, err := exporter.RenderStatement(context.Background(), sampleStatement())
	assert.Error(t, err)
}

func TestRenderStatementSurfacesGotenbergFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := (&PDFExporter{Endpoint: srv.URL}).RenderStatement(context.Background(), sampleStatement())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
