// Package ingest normalizes uploaded financial documents into prompt-ready
// parts for the document-facing passes. Text-bearing formats are flattened
// to plain text; opaque formats (PDF, images) pass through as inline blobs
// for multimodal models.
package ingest

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
)

// RawDocument is an uploaded file before normalization.
type RawDocument struct {
	Filename string
	MIMEType string
	Data     []byte
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// Prepare converts uploaded documents into llm.Document parts. Unreadable
// documents are skipped with a warning rather than failing the job; the
// quality-review pass will surface the gap.
func Prepare(docs []RawDocument) []llm.Document {
	var prepared []llm.Document
	for _, doc := range docs {
		part, err := prepareOne(doc)
		if err != nil {
			fmt.Printf("[INGEST] Warning: skipping %s: %v\n", doc.Filename, err)
			continue
		}
		prepared = append(prepared, part)
	}
	return prepared
}

func prepareOne(doc RawDocument) (llm.Document, error) {
	out := llm.Document{
		Filename: doc.Filename,
		MIMEType: mimeType(doc),
	}

	switch out.MIMEType {
	case "text/html":
		text, err := FlattenHTML(string(doc.Data))
		if err != nil {
			return out, fmt.Errorf("flatten html: %w", err)
		}
		out.Text = text
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		text, err := FlattenXLSX(doc.Data)
		if err != nil {
			return out, fmt.Errorf("flatten xlsx: %w", err)
		}
		out.Text = text
	case "text/plain", "text/csv", "text/markdown":
		out.Text = string(doc.Data)
	default:
		// PDF and images go to the model as inline data.
		out.Data = doc.Data
	}

	return out, nil
}

// mimeType resolves the content type, falling back to the file extension
// when the upload did not declare one.
func mimeType(doc RawDocument) string {
	if doc.MIMEType != "" && doc.MIMEType != "application/octet-stream" {
		return doc.MIMEType
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".html", ".htm":
		return "text/html"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// FlattenHTML converts an HTML financial statement into plain text. Tables
// become pipe-separated rows so the row/column structure survives; scripts,
// styles and hidden noise are dropped.
func FlattenHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, head").Remove()

	// Replace each table with its flattened rows before taking the text,
	// so cell boundaries do not collapse into one word soup.
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
		})
		table.ReplaceWithHtml("<p>" + html.EscapeString(strings.Join(rows, "\n")) + "</p>")
	})

	text := doc.Text()
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// FlattenXLSX renders every sheet of a workbook as pipe-separated rows.
func FlattenXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		sb.WriteString(fmt.Sprintf("=== SHEET: %s ===\n", sheet))
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			sb.WriteString(strings.Join(row, " | "))
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
