package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Hint 터미널 사용자에게 보여줄 안내 메시지
type Hint struct {
	Title string
	URL   string
	Steps []string
}

// Render w의 색상 지원 여부에 맞춰 안내를 그립니다. 터미널이 아니면 장식 없는 텍스트가 됩니다
func (h Hint) Render(w io.Writer) string {
	r := lipgloss.NewRenderer(w)

	titleStyle := r.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	urlStyle := r.NewStyle().
		Foreground(lipgloss.Color("#4ECDC4")).
		Underline(true)

	stepStyle := r.NewStyle().
		Foreground(lipgloss.Color("#FFD93D")).
		PaddingLeft(2)

	var b strings.Builder
	b.WriteString(titleStyle.Render(h.Title))
	b.WriteString("\n\n")
	if h.URL != "" {
		b.WriteString(urlStyle.Render(h.URL))
		b.WriteString("\n\n")
	}
	for _, step := range h.Steps {
		b.WriteString(stepStyle.Render(step))
		b.WriteString("\n")
	}
	return b.String()
}

// Print 안내를 w에 출력합니다
func (h Hint) Print(w io.Writer) error {
	_, err := fmt.Fprint(w, h.Render(w))
	return err
}
