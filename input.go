package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gdocs-cli/gdocs"
	"gdocs-cli/models"
)

const (
	formatText     = "text"
	formatMarkdown = "markdown"
)

// 필드가 빠졌는지 구분하기 위해 포인터를 사용
type insertInput struct {
	DocumentID    *string `json:"document_id"`
	Text          *string `json:"text"`
	Index         *int64  `json:"index"`
	ContentFormat string  `json:"content_format"`
}

type appendInput struct {
	DocumentID *string `json:"document_id"`
	Text       *string `json:"text"`
}

type replaceInput struct {
	DocumentID *string `json:"document_id"`
	Find       *string `json:"find"`
	Replace    *string `json:"replace"`
	MatchCase  bool    `json:"match_case"`
}

type formatInput struct {
	DocumentID *string `json:"document_id"`
	StartIndex *int64  `json:"start_index"`
	EndIndex   *int64  `json:"end_index"`
	Bold       *bool   `json:"bold"`
	Italic     *bool   `json:"italic"`
	Underline  *bool   `json:"underline"`
}

type pageBreakInput struct {
	DocumentID *string `json:"document_id"`
	Index      *int64  `json:"index"`
}

type createInput struct {
	Title         *string `json:"title"`
	Content       string  `json:"content"`
	ContentFormat string  `json:"content_format"`
}

type deleteInput struct {
	DocumentID *string `json:"document_id"`
	StartIndex *int64  `json:"start_index"`
	EndIndex   *int64  `json:"end_index"`
}

// decodeInput stdin 전체를 JSON 객체 하나로 읽습니다
func decodeInput(r io.Reader, operation string, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return invalidArgs(models.CodeInvalidJSON, operation, "Failed to read JSON input: "+err.Error())
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return invalidArgs(models.CodeInvalidJSON, operation, "JSON input required on stdin")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalidArgs(models.CodeInvalidJSON, operation, "Invalid JSON input: "+err.Error())
	}
	return nil
}

func missingFields(operation, message string) error {
	return invalidArgs(models.CodeMissingRequiredFields, operation, message)
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func checkContentFormat(operation, format string) (bool, error) {
	switch format {
	case "", formatText:
		return false, nil
	case formatMarkdown:
		return true, nil
	default:
		return false, invalidArgs(models.CodeInvalidArguments, operation,
			fmt.Sprintf("content_format must be %q or %q, got %q", formatText, formatMarkdown, format))
	}
}

func checkRange(operation string, start, end int64) error {
	if start < 1 {
		return invalidArgs(models.CodeInvalidArguments, operation, "start_index must be at least 1")
	}
	if end <= start {
		return invalidArgs(models.CodeInvalidArguments, operation, "end_index must be greater than start_index")
	}
	return nil
}

func (in *insertInput) validate(operation string) (markdown bool, err error) {
	if !present(in.DocumentID) || in.Text == nil {
		return false, missingFields(operation, "Required fields: document_id, text")
	}
	if in.Index == nil {
		one := int64(1)
		in.Index = &one
	}
	if *in.Index < 1 {
		return false, invalidArgs(models.CodeInvalidArguments, operation, "index must be at least 1")
	}
	return checkContentFormat(operation, in.ContentFormat)
}

func (in *appendInput) validate(operation string) error {
	if !present(in.DocumentID) || in.Text == nil {
		return missingFields(operation, "Required fields: document_id, text")
	}
	return nil
}

func (in *replaceInput) validate(operation string) error {
	// 공백만 있는 find도 유효한 검색어
	if !present(in.DocumentID) || in.Find == nil || *in.Find == "" || in.Replace == nil {
		return missingFields(operation, "Required fields: document_id, find, replace")
	}
	return nil
}

func (in *formatInput) validate(operation string) (gdocs.TextFormat, error) {
	if !present(in.DocumentID) || in.StartIndex == nil || in.EndIndex == nil {
		return gdocs.TextFormat{}, missingFields(operation, "Required fields: document_id, start_index, end_index")
	}
	if err := checkRange(operation, *in.StartIndex, *in.EndIndex); err != nil {
		return gdocs.TextFormat{}, err
	}
	format := gdocs.TextFormat{Bold: in.Bold, Italic: in.Italic, Underline: in.Underline}
	if format.Empty() {
		return format, invalidArgs(models.CodeInvalidArguments, operation,
			"At least one of bold, italic, underline is required")
	}
	return format, nil
}

func (in *pageBreakInput) validate(operation string) error {
	if !present(in.DocumentID) || in.Index == nil {
		return missingFields(operation, "Required fields: document_id, index")
	}
	if *in.Index < 1 {
		return invalidArgs(models.CodeInvalidArguments, operation, "index must be at least 1")
	}
	return nil
}

func (in *createInput) validate(operation string) (bool, error) {
	if !present(in.Title) {
		return false, missingFields(operation, "Required field: title")
	}
	return checkContentFormat(operation, in.ContentFormat)
}

func (in *deleteInput) validate(operation string) error {
	if !present(in.DocumentID) || in.StartIndex == nil || in.EndIndex == nil {
		return missingFields(operation, "Required fields: document_id, start_index, end_index")
	}
	return checkRange(operation, *in.StartIndex, *in.EndIndex)
}

// writeJSON 응답을 들여쓴 JSON으로 출력합니다
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
