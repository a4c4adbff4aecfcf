package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quizbank/backend/internal/model"
)

// requiredColumns are the six headers every uploaded CSV must carry.
// Column order is irrelevant; extra columns are ignored.
var requiredColumns = []string{"question", "answer_a", "answer_b", "answer_c", "answer_d", "correct"}

const (
	maxQuestionLen = 2000
	maxAnswerLen   = 500
)

// ParsedRow is the validated, normalized form of one CSV data row.
// All fields are trimmed and Correct is lowercased to one of a–d.
type ParsedRow struct {
	Question string
	AnswerA  string
	AnswerB  string
	AnswerC  string
	AnswerD  string
	Correct  string
}

// ParseResult is the outcome of parsing one CSV file. Rows and Errors are
// independent: invalid rows land in Errors without blocking valid ones, so
// Rows may be non-empty even when Success is false.
type ParseResult struct {
	Success bool
	Rows    []ParsedRow
	Errors  []model.RowError
}

// ParseCSV parses and validates a CSV file of quiz questions.
//
// Structural failures (empty file, missing required columns, malformed CSV
// syntax) short-circuit with a single row-0 error and no rows. Row-level
// validation collects every violation per row, tagged with the 1-based file
// line number (data rows start at line 2, after the header).
func ParseCSV(content []byte) ParseResult {
	result := ParseResult{
		Rows:   []ParsedRow{},
		Errors: []model.RowError{},
	}

	reader := csv.NewReader(bytes.NewReader(stripBOM(content)))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, model.RowError{
			Row:   0,
			Error: fmt.Sprintf("CSV parsing error: %v", err),
		})
		return result
	}

	if len(records) < 2 {
		result.Errors = append(result.Errors, model.RowError{
			Row:   0,
			Error: "CSV file is empty or contains only headers",
		})
		return result
	}

	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors, model.RowError{
			Row:   0,
			Error: "Missing required columns: " + strings.Join(missing, ", "),
		})
		return result
	}

	for i, record := range records[1:] {
		rowNumber := i + 2 // +2: line 1 is the header, lines are 1-based

		field := func(col string) string {
			idx := colIndex[col]
			if idx >= len(record) {
				return ""
			}
			return record[idx]
		}

		raw := rawRow{
			question: field("question"),
			correct:  field("correct"),
		}
		for j, label := range model.OptionLabels {
			raw.answers[j] = field("answer_" + label)
		}

		if rowErrs := validateRow(raw, rowNumber); len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}

		result.Rows = append(result.Rows, ParsedRow{
			Question: strings.TrimSpace(raw.question),
			AnswerA:  strings.TrimSpace(raw.answers[0]),
			AnswerB:  strings.TrimSpace(raw.answers[1]),
			AnswerC:  strings.TrimSpace(raw.answers[2]),
			AnswerD:  strings.TrimSpace(raw.answers[3]),
			Correct:  strings.ToLower(strings.TrimSpace(raw.correct)),
		})
	}

	result.Success = len(result.Errors) == 0
	return result
}

// rawRow holds one record's fields before validation, untrimmed.
type rawRow struct {
	question string
	answers  [4]string // indexed per model.OptionLabels
	correct  string
}

// validateRow returns every violation for one row; it never short-circuits,
// so the uploader sees all problems with a row at once.
func validateRow(raw rawRow, rowNumber int) []model.RowError {
	var errs []model.RowError

	question := strings.TrimSpace(raw.question)
	if question == "" {
		errs = append(errs, model.RowError{Row: rowNumber, Error: "Question text cannot be empty"})
	} else if utf8.RuneCountInString(question) > maxQuestionLen {
		errs = append(errs, model.RowError{Row: rowNumber, Error: "Question text exceeds 2000 characters"})
	}

	for i, label := range model.OptionLabels {
		name := "answer_" + label
		answer := strings.TrimSpace(raw.answers[i])
		if answer == "" {
			errs = append(errs, model.RowError{Row: rowNumber, Error: name + " cannot be empty"})
		} else if utf8.RuneCountInString(answer) > maxAnswerLen {
			errs = append(errs, model.RowError{Row: rowNumber, Error: name + " exceeds 500 characters"})
		}
	}

	if strings.TrimSpace(raw.correct) == "" {
		errs = append(errs, model.RowError{Row: rowNumber, Error: "Correct answer designation cannot be empty"})
	} else {
		switch strings.ToLower(strings.TrimSpace(raw.correct)) {
		case "a", "b", "c", "d":
		default:
			// Echo the raw value so the uploader sees exactly what the file says.
			errs = append(errs, model.RowError{
				Row:   rowNumber,
				Error: fmt.Sprintf("Correct answer must be 'a', 'b', 'c', or 'd' (got '%s')", raw.correct),
			})
		}
	}

	return errs
}

func stripBOM(content []byte) []byte {
	return bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
}
