package export

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/kriwitj/nso-forms/internal/models"
)

// bom lets spreadsheet applications detect UTF-8.
const bom = "\uFEFF"

// ParseFormat maps a query value onto a supported export format.
func ParseFormat(value string) (models.ExportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return models.ExportFormatCSV, true
	case "xlsx", "xls", "excel":
		return models.ExportFormatXLSX, true
	}
	return "", false
}

func ContentType(format models.ExportFormat) string {
	if format == models.ExportFormatXLSX {
		return "application/vnd.ms-excel; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

func FileName(formID string, format models.ExportFormat) string {
	if format == models.ExportFormatXLSX {
		return fmt.Sprintf("form-%s.xls", formID)
	}
	return fmt.Sprintf("form-%s.csv", formID)
}

func Write(w io.Writer, format models.ExportFormat, title string, table Table) error {
	if format == models.ExportFormatXLSX {
		return WriteHTML(w, title, table)
	}
	return WriteCSV(w, table)
}

// WriteCSV writes the table as BOM-prefixed CSV with rows joined by "\n".
func WriteCSV(w io.Writer, table Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(EscapeCSV(cell))
		}
	}

	writeRow(table.Header)
	for _, row := range table.Rows {
		bw.WriteByte('\n')
		writeRow(row)
	}
	return bw.Flush()
}

// EscapeCSV quotes a value containing a comma, quote or line break and
// doubles any embedded quotes. Other values pass through untouched.
func EscapeCSV(value string) string {
	if !strings.ContainsAny(value, ",\"\n\r") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

var htmlTable = template.Must(template.New("export").Parse(`<html><head><meta charset="utf-8"><title>{{.Title}}</title></head><body><table border="1">
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
</tbody></table></body></html>
`))

// WriteHTML writes the table as an HTML document that spreadsheet
// applications open as a worksheet.
func WriteHTML(w io.Writer, title string, table Table) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	return htmlTable.Execute(w, struct {
		Title  string
		Header []string
		Rows   [][]string
	}{title, table.Header, table.Rows})
}
