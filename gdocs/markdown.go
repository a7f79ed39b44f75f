package gdocs

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"google.golang.org/api/docs/v1"
)

const (
	bulletPreset   = "BULLET_DISC_CIRCLE_SQUARE"
	numberedPreset = "NUMBERED_DECIMAL_ALPHA_ROMAN"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Strikethrough)).Parser()

// Conversion 마크다운 변환 결과. Text는 삽입될 평문이고 나머지는 서식 요청입니다
type Conversion struct {
	Index  int64
	Text   string
	Styles []*docs.Request
}

// Requests 삽입 요청 뒤에 서식 요청을 이어 붙인 batchUpdate 요청 목록
func (c *Conversion) Requests() []*docs.Request {
	if c.Text == "" {
		return nil
	}
	requests := make([]*docs.Request, 0, len(c.Styles)+1)
	requests = append(requests, insertTextRequest(c.Text, c.Index))
	return append(requests, c.Styles...)
}

// ConvertMarkdown 마크다운을 index 위치에 삽입할 평문과 서식 요청으로 변환합니다.
// 제목, 강조, 취소선, 링크, 목록, 코드를 지원합니다
func ConvertMarkdown(source []byte, index int64) (*Conversion, error) {
	if index < 1 {
		return nil, fmt.Errorf("삽입 위치는 1 이상이어야 합니다: %d", index)
	}

	root := markdownParser.Parse(text.NewReader(source))
	w := &markdownWriter{source: source, pos: index}
	w.block(root)

	// 목록 요청은 앞의 탭을 지워 뒤쪽 인덱스를 바꾸므로 마지막에 뒤에서부터 적용
	styles := w.styles
	for i := len(w.bullets) - 1; i >= 0; i-- {
		styles = append(styles, w.bullets[i])
	}

	return &Conversion{
		Index:  index,
		Text:   w.buf.String(),
		Styles: styles,
	}, nil
}

type markdownWriter struct {
	source []byte
	buf    strings.Builder
	pos    int64
	styles []*docs.Request

	bullets   []*docs.Request
	listDepth int
}

func (w *markdownWriter) write(s string) {
	w.buf.WriteString(s)
	w.pos += int64(TextLength(s))
}

func (w *markdownWriter) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c)
	}
}

func (w *markdownWriter) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		start := w.pos
		w.inline(node)
		w.write("\n")
		if node.Level >= 1 && node.Level <= 6 {
			w.styles = append(w.styles, &docs.Request{
				UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
					Range:          &docs.Range{StartIndex: start, EndIndex: w.pos},
					ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: fmt.Sprintf("HEADING_%d", node.Level)},
					Fields:         "namedStyleType",
				},
			})
		}

	case *ast.Paragraph, *ast.TextBlock:
		// 중첩 수준은 앞의 탭 개수로 전달
		if _, ok := node.Parent().(*ast.ListItem); ok && w.listDepth > 1 {
			w.write(strings.Repeat("\t", w.listDepth-1))
		}
		w.inline(node)
		w.write("\n")

	case *ast.List:
		start := w.pos
		w.listDepth++
		w.children(node)
		w.listDepth--
		// 안쪽 목록은 가장 바깥 목록 요청 하나에 포함
		if w.pos == start || w.listDepth > 0 {
			return
		}
		preset := bulletPreset
		if node.IsOrdered() {
			preset = numberedPreset
		}
		w.bullets = append(w.bullets, &docs.Request{
			CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
				Range:        &docs.Range{StartIndex: start, EndIndex: w.pos},
				BulletPreset: preset,
			},
		})

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		start := w.pos
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			w.write(string(segment.Value(w.source)))
		}
		if !strings.HasSuffix(w.buf.String(), "\n") {
			w.write("\n")
		}
		w.addTextStyle(start, &docs.TextStyle{
			WeightedFontFamily: &docs.WeightedFontFamily{FontFamily: codeFontFamily},
		}, "weightedFontFamily")

	case *ast.ThematicBreak, *ast.HTMLBlock:
		// 대응하는 문서 요소가 없음

	default:
		w.children(node)
	}
}

func (w *markdownWriter) inline(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			w.write(string(node.Segment.Value(w.source)))
			switch {
			case node.HardLineBreak():
				w.write("\n")
			case node.SoftLineBreak():
				w.write(" ")
			}

		case *ast.String:
			w.write(string(node.Value))

		case *ast.CodeSpan:
			start := w.pos
			w.inline(node)
			w.addTextStyle(start, &docs.TextStyle{
				WeightedFontFamily: &docs.WeightedFontFamily{FontFamily: codeFontFamily},
			}, "weightedFontFamily")

		case *ast.Emphasis:
			start := w.pos
			w.inline(node)
			if node.Level >= 2 {
				w.addTextStyle(start, &docs.TextStyle{Bold: true}, "bold")
			} else {
				w.addTextStyle(start, &docs.TextStyle{Italic: true}, "italic")
			}

		case *east.Strikethrough:
			start := w.pos
			w.inline(node)
			w.addTextStyle(start, &docs.TextStyle{Strikethrough: true}, "strikethrough")

		case *ast.Link:
			start := w.pos
			w.inline(node)
			w.addTextStyle(start, &docs.TextStyle{Link: &docs.Link{Url: string(node.Destination)}}, "link")

		case *ast.AutoLink:
			start := w.pos
			url := string(node.URL(w.source))
			w.write(url)
			w.addTextStyle(start, &docs.TextStyle{Link: &docs.Link{Url: url}}, "link")

		case *ast.RawHTML:
			// 무시

		default:
			// Image는 대체 텍스트만 남음
			w.inline(node)
		}
	}
}

func (w *markdownWriter) addTextStyle(start int64, style *docs.TextStyle, fields string) {
	if w.pos <= start {
		return
	}
	w.styles = append(w.styles, &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range:     &docs.Range{StartIndex: start, EndIndex: w.pos},
			TextStyle: style,
			Fields:    fields,
		},
	})
}
