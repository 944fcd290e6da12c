package ingest

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestFlattenHTMLKeepsTableStructure(t *testing.T) {
	html := `<html><head><style>td {color: red}</style></head><body>
	<h1>Income Statement</h1>
	<script>alert("noise")</script>
	<table>
		<tr><th>Line</th><th>2024</th></tr>
		<tr><td>Revenue</td><td>2,000,000</td></tr>
		<tr><td>COGS</td><td>800,000</td></tr>
	</table>
	</body></html>`

	text, err := FlattenHTML(html)
	if err != nil {
		t.Fatalf("FlattenHTML: %v", err)
	}
	if !strings.Contains(text, "Revenue | 2,000,000") {
		t.Errorf("table row lost cell separation:\n%s", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color: red") {
		t.Errorf("script/style content leaked:\n%s", text)
	}
	if !strings.Contains(text, "Income Statement") {
		t.Errorf("heading text missing:\n%s", text)
	}
}

func TestFlattenXLSX(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Period")
	f.SetCellValue("Sheet1", "B1", "Revenue")
	f.SetCellValue("Sheet1", "A2", "2024")
	f.SetCellValue("Sheet1", "B2", 2000000)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	text, err := FlattenXLSX(buf.Bytes())
	if err != nil {
		t.Fatalf("FlattenXLSX: %v", err)
	}
	if !strings.Contains(text, "=== SHEET: Sheet1 ===") {
		t.Errorf("sheet header missing:\n%s", text)
	}
	if !strings.Contains(text, "Period | Revenue") {
		t.Errorf("header row missing:\n%s", text)
	}
	if !strings.Contains(text, "2024 | 2000000") {
		t.Errorf("data row missing:\n%s", text)
	}
}

func TestPrepareRoutesByType(t *testing.T) {
	docs := Prepare([]RawDocument{
		{Filename: "notes.txt", Data: []byte("plain notes")},
		{Filename: "return.pdf", Data: []byte{0x25, 0x50, 0x44, 0x46}},
		{Filename: "broken.xlsx", Data: []byte("not a workbook")},
	})

	if len(docs) != 2 {
		t.Fatalf("prepared %d documents, want 2 (unreadable workbook skipped)", len(docs))
	}

	if docs[0].Text != "plain notes" || docs[0].MIMEType != "text/plain" {
		t.Errorf("text passthrough wrong: %+v", docs[0])
	}
	if len(docs[1].Data) == 0 || docs[1].Text != "" {
		t.Errorf("pdf should pass through as blob: %+v", docs[1])
	}
	if docs[1].MIMEType != "application/pdf" {
		t.Errorf("pdf MIME = %q", docs[1].MIMEType)
	}
}

func TestMIMETypeFallsBackToExtension(t *testing.T) {
	cases := map[string]string{
		"a.html": "text/html",
		"a.csv":  "text/csv",
		"a.md":   "text/markdown",
		"a.png":  "image/png",
		"a.bin":  "application/octet-stream",
	}
	for filename, want := range cases {
		if got := mimeType(RawDocument{Filename: filename}); got != want {
			t.Errorf("mimeType(%s) = %q, want %q", filename, got, want)
		}
	}
}
