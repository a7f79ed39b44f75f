package gdocs

import (
	"testing"
)

func TestConvertMarkdown_Basic(t *testing.T) {
	src := "# Title\n\nHello **bold** and *it*.\n\n- a\n- b\n"
	conv, err := ConvertMarkdown([]byte(src), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantText := "Title\nHello bold and it.\na\nb\n"
	if conv.Text != wantText {
		t.Fatalf("expected text %q, got %q", wantText, conv.Text)
	}
	if len(conv.Styles) != 4 {
		t.Fatalf("expected 4 style requests, got %d", len(conv.Styles))
	}

	heading := conv.Styles[0].UpdateParagraphStyle
	if heading == nil || heading.ParagraphStyle.NamedStyleType != "HEADING_1" {
		t.Fatalf("style[0]: expected HEADING_1 paragraph style, got %+v", conv.Styles[0])
	}
	if heading.Range.StartIndex != 1 || heading.Range.EndIndex != 7 {
		t.Errorf("heading range: expected [1,7), got [%d,%d)", heading.Range.StartIndex, heading.Range.EndIndex)
	}

	bold := conv.Styles[1].UpdateTextStyle
	if bold == nil || !bold.TextStyle.Bold || bold.Fields != "bold" {
		t.Fatalf("style[1]: expected bold, got %+v", conv.Styles[1])
	}
	if bold.Range.StartIndex != 13 || bold.Range.EndIndex != 17 {
		t.Errorf("bold range: expected [13,17), got [%d,%d)", bold.Range.StartIndex, bold.Range.EndIndex)
	}

	italic := conv.Styles[2].UpdateTextStyle
	if italic == nil || !italic.TextStyle.Italic {
		t.Fatalf("style[2]: expected italic, got %+v", conv.Styles[2])
	}
	if italic.Range.StartIndex != 22 || italic.Range.EndIndex != 24 {
		t.Errorf("italic range: expected [22,24), got [%d,%d)", italic.Range.StartIndex, italic.Range.EndIndex)
	}

	bullets := conv.Styles[3].CreateParagraphBullets
	if bullets == nil || bullets.BulletPreset != bulletPreset {
		t.Fatalf("style[3]: expected bullets, got %+v", conv.Styles[3])
	}
	if bullets.Range.StartIndex != 26 || bullets.Range.EndIndex != 30 {
		t.Errorf("bullet range: expected [26,30), got [%d,%d)", bullets.Range.StartIndex, bullets.Range.EndIndex)
	}
}

func TestConvertMarkdown_RequestsStartWithInsert(t *testing.T) {
	conv, err := ConvertMarkdown([]byte("## Sub\n"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reqs := conv.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	insert := reqs[0].InsertText
	if insert == nil || insert.Location.Index != 5 || insert.Text != "Sub\n" {
		t.Fatalf("expected insert of %q at 5, got %+v", "Sub\n", reqs[0])
	}
	style := reqs[1].UpdateParagraphStyle
	if style == nil || style.ParagraphStyle.NamedStyleType != "HEADING_2" || style.Range.StartIndex != 5 {
		t.Errorf("expected HEADING_2 from 5, got %+v", reqs[1])
	}
}

func TestConvertMarkdown_OrderedListAndCode(t *testing.T) {
	src := "1. one\n2. two\n\n```\nx := 1\n```\n"
	conv, err := ConvertMarkdown([]byte(src), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Text != "one\ntwo\nx := 1\n" {
		t.Fatalf("unexpected text %q", conv.Text)
	}
	if len(conv.Styles) != 2 {
		t.Fatalf("expected 2 styles, got %d", len(conv.Styles))
	}
	code := conv.Styles[0].UpdateTextStyle
	if code == nil || code.TextStyle.WeightedFontFamily == nil || code.TextStyle.WeightedFontFamily.FontFamily != codeFontFamily {
		t.Errorf("expected code font, got %+v", conv.Styles[0])
	}
	// 목록 요청은 서식 요청 뒤에 옴
	if b := conv.Styles[1].CreateParagraphBullets; b == nil || b.BulletPreset != numberedPreset {
		t.Errorf("expected numbered bullets, got %+v", conv.Styles[1])
	}
}

func TestConvertMarkdown_LinkAndUTF16(t *testing.T) {
	// 😀는 UTF-16 두 유닛
	conv, err := ConvertMarkdown([]byte("😀 [go](https://go.dev)\n"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Text != "😀 go\n" {
		t.Fatalf("unexpected text %q", conv.Text)
	}
	link := conv.Styles[0].UpdateTextStyle
	if link == nil || link.TextStyle.Link == nil || link.TextStyle.Link.Url != "https://go.dev" {
		t.Fatalf("expected link style, got %+v", conv.Styles[0])
	}
	if link.Range.StartIndex != 4 || link.Range.EndIndex != 6 {
		t.Errorf("link range: expected [4,6), got [%d,%d)", link.Range.StartIndex, link.Range.EndIndex)
	}
}

func TestConvertMarkdown_Empty(t *testing.T) {
	conv, err := ConvertMarkdown(nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Requests() != nil {
		t.Errorf("expected no requests for empty input, got %+v", conv.Requests())
	}
}

func TestConvertMarkdown_InvalidIndex(t *testing.T) {
	if _, err := ConvertMarkdown([]byte("x"), 0); err == nil {
		t.Fatal("expected error for index 0")
	}
}

func TestTextLength(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"abc":   3,
		"한글":    2,
		"😀":     2,
		"a😀b\n": 5,
	}
	for in, want := range cases {
		if got := TextLength(in); got != want {
			t.Errorf("TextLength(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestConvertMarkdown_NestedList(t *testing.T) {
	conv, err := ConvertMarkdown([]byte("- a\n  - b\n    - c\n- d\n"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Text != "a\n\tb\n\t\tc\nd\n" {
		t.Fatalf("expected tab-indented text, got %q", conv.Text)
	}
	if len(conv.Styles) != 1 {
		t.Fatalf("expected a single bullets request, got %d", len(conv.Styles))
	}
	b := conv.Styles[0].CreateParagraphBullets
	if b == nil || b.Range.StartIndex != 1 || b.Range.EndIndex != 1+int64(TextLength(conv.Text)) {
		t.Errorf("expected bullets over the whole list, got %+v", conv.Styles[0])
	}
}

func TestConvertMarkdown_ListsAppliedLastToFirst(t *testing.T) {
	conv, err := ConvertMarkdown([]byte("- a\n\ntext\n\n1. b\n"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conv.Styles) != 2 {
		t.Fatalf("expected 2 bullets requests, got %d", len(conv.Styles))
	}
	first, second := conv.Styles[0].CreateParagraphBullets, conv.Styles[1].CreateParagraphBullets
	if first == nil || second == nil {
		t.Fatalf("expected bullets requests, got %+v", conv.Styles)
	}
	if first.BulletPreset != numberedPreset || first.Range.StartIndex <= second.Range.StartIndex {
		t.Errorf("expected the later list first, got %+v then %+v", first.Range, second.Range)
	}
}

func TestConvertMarkdown_NoTextNoRequests(t *testing.T) {
	for _, src := range []string{"---\n", "<div>\n</div>\n", ""} {
		conv, err := ConvertMarkdown([]byte(src), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conv.Text != "" || conv.Requests() != nil {
			t.Errorf("%q: expected no text and no requests, got %q / %d", src, conv.Text, len(conv.Requests()))
		}
	}
}
