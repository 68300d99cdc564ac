package export

import (
	"time"

	"github.com/kriwitj/nso-forms/internal/models"
)

// SubmittedAtHeader labels the leading timestamp column.
const SubmittedAtHeader = "วันที่ส่ง"

type Table struct {
	Header []string
	Rows   [][]string
}

// BuildTable lays submissions out one per row. Columns follow the current
// question order; answers are matched by question id and unanswered cells
// stay blank.
func BuildTable(questions []models.Question, submissions []models.Submission, loc *time.Location) Table {
	header := make([]string, 0, len(questions)+1)
	header = append(header, SubmittedAtHeader)
	for _, q := range questions {
		header = append(header, q.Text)
	}

	rows := make([][]string, 0, len(submissions))
	for _, s := range submissions {
		byQuestion := make(map[string]string, len(s.Answers))
		for _, a := range s.Answers {
			byQuestion[a.QuestionID] = a.Value
		}

		row := make([]string, 0, len(questions)+1)
		row = append(row, FormatThaiDateTime(s.CreatedAt, loc))
		for _, q := range questions {
			row = append(row, byQuestion[q.ID])
		}
		rows = append(rows, row)
	}

	return Table{Header: header, Rows: rows}
}
