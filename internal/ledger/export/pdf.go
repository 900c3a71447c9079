package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// PDFExporter wraps Gotenberg interactions for statement exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderStatement sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderStatement(ctx context.Context, st Statement) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	doc := buildStatementHTML(st)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "statement.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, doc); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildStatementHTML(st Statement) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}p{margin:2px 0;color:#444;}table{width:100%;border-collapse:collapse;margin-top:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;} .row-label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Customer Ledger – %s</h1>", html.EscapeString(st.CustomerName)))
	if st.CustomerAddress != "" {
		b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(st.CustomerAddress)))
	}
	if st.CustomerMobile != "" {
		b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(st.CustomerMobile)))
	}

	b.WriteString("<table><thead><tr><th>Date</th><th>Description</th><th>Items</th><th>Quantity</th><th>Amount</th></tr></thead><tbody>")
	for _, r := range st.Rows {
		b.WriteString("<tr><td class=\"row-label\">")
		b.WriteString(html.EscapeString(r.Date))
		b.WriteString("</td><td class=\"row-label\">")
		b.WriteString(html.EscapeString(r.Description))
		b.WriteString("</td><td class=\"row-label\">")
		b.WriteString(html.EscapeString(r.Items))
		b.WriteString("</td><td>")
		b.WriteString(strconv.Itoa(r.Quantity))
		b.WriteString("</td><td>")
		b.WriteString(formatFloat(r.Amount))
		b.WriteString("</td></tr>")
	}
	b.WriteString("<tr><td class=\"row-label\" colspan=\"4\"><strong>Total</strong></td><td><strong>")
	b.WriteString(formatFloat(st.Total()))
	b.WriteString("</strong></td></tr>")
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}
