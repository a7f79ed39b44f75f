package gdocs

import (
	"errors"
	"strings"

	"gdocs-cli/models"

	"google.golang.org/api/docs/v1"
)

const (
	// DefaultMaxDepth 표 안에 표가 중첩될 수 있는 기본 최대 깊이
	DefaultMaxDepth = 64

	cellSeparator = " | "
)

// ErrTooDeep 표 중첩이 최대 깊이를 넘었을 때 반환됩니다
var ErrTooDeep = errors.New("structure too deep")

// headingLevels 제목 스타일 이름과 수준의 대응표. 여기에 없는 스타일은 제목이 아닙니다
var headingLevels = map[string]int{
	"HEADING_1": 1,
	"HEADING_2": 2,
	"HEADING_3": 3,
	"HEADING_4": 4,
	"HEADING_5": 5,
	"HEADING_6": 6,
}

// HeadingLevel 스타일 이름에 해당하는 제목 수준을 반환합니다
func HeadingLevel(namedStyle string) (int, bool) {
	level, ok := headingLevels[namedStyle]
	return level, ok
}

// Flattener 문서 구조를 평문으로 변환합니다. MaxDepth가 0 이하이면 DefaultMaxDepth를 사용합니다
type Flattener struct {
	MaxDepth int
}

// FlattenContent 기본 깊이 제한으로 구조 요소들을 평문으로 변환합니다
func FlattenContent(elements []*docs.StructuralElement) (string, error) {
	return Flattener{}.Flatten(elements)
}

// Flatten 단락은 텍스트 런을 이어 붙이고, 표는 셀을 " | "로 행을 줄바꿈으로 연결합니다.
// 그 밖의 요소(구역 나눔, 목차 등)는 건너뜁니다
func (f Flattener) Flatten(elements []*docs.StructuralElement) (string, error) {
	maxDepth := f.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return flattenElements(elements, 0, maxDepth)
}

func flattenElements(elements []*docs.StructuralElement, depth, maxDepth int) (string, error) {
	if depth > maxDepth {
		return "", ErrTooDeep
	}

	parts := make([]string, 0, len(elements))
	for _, element := range elements {
		if element == nil {
			continue
		}

		switch {
		case element.Paragraph != nil:
			parts = append(parts, ParagraphText(element.Paragraph))
		case element.Table != nil:
			text, err := flattenTable(element.Table, depth, maxDepth)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// flattenTable 각 셀의 내용을 한 단계 더 깊이 재귀 변환합니다
func flattenTable(table *docs.Table, depth, maxDepth int) (string, error) {
	rows := make([]string, 0, len(table.TableRows))
	for _, row := range table.TableRows {
		if row == nil {
			continue
		}

		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			if cell == nil {
				cells = append(cells, "")
				continue
			}
			text, err := flattenElements(cell.Content, depth+1, maxDepth)
			if err != nil {
				return "", err
			}
			cells = append(cells, text)
		}
		rows = append(rows, strings.Join(cells, cellSeparator))
	}
	return strings.Join(rows, "\n"), nil
}

// ParagraphText 단락의 모든 텍스트 런을 구분자 없이 이어 붙입니다
func ParagraphText(paragraph *docs.Paragraph) string {
	if paragraph == nil {
		return ""
	}

	var b strings.Builder
	for _, element := range paragraph.Elements {
		if element == nil || element.TextRun == nil {
			continue
		}
		b.WriteString(element.TextRun.Content)
	}
	return b.String()
}

// ExtractHeadings 최상위 단락 중 제목 스타일을 가진 것만 문서 순서대로 반환합니다.
// 표 셀 안의 제목은 포함하지 않습니다
func ExtractHeadings(elements []*docs.StructuralElement) []models.Heading {
	headings := []models.Heading{}
	for _, element := range elements {
		if element == nil || element.Paragraph == nil {
			continue
		}

		style := element.Paragraph.ParagraphStyle
		if style == nil || style.NamedStyleType == "" {
			continue
		}

		level, ok := HeadingLevel(style.NamedStyleType)
		if !ok {
			continue
		}

		headings = append(headings, models.Heading{
			Level:      level,
			Text:       ParagraphText(element.Paragraph),
			StartIndex: element.StartIndex,
			EndIndex:   element.EndIndex,
		})
	}
	return headings
}
