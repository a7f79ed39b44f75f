package ui

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled 사용자가 대기 화면에서 ctrl+c로 취소했을 때 반환됩니다
var ErrCanceled = errors.New("사용자가 취소했습니다")

// WaitTask 대기 화면 뒤에서 실행되는 작업. 안내할 URL이 정해지면 showURL을 호출합니다
type WaitTask func(ctx context.Context, showURL func(url string)) error

// WaitModel 작업이 끝날 때까지 안내와 스피너를 보여주는 bubbletea 모델
type WaitModel struct {
	title   string
	message string
	url     string

	spinner spinner.Model
	run     func() error
	cancel  context.CancelFunc

	renderer *lipgloss.Renderer
	err      error
	done     bool
}

// urlMsg 작업이 안내 URL을 알려줄 때의 메시지
type urlMsg string

// taskDoneMsg 작업 종료 메시지
type taskDoneMsg struct {
	err error
}

func newWaitModel(w io.Writer, title, message string, run func() error, cancel context.CancelFunc) *WaitModel {
	renderer := lipgloss.NewRenderer(w)
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = renderer.NewStyle().Foreground(lipgloss.Color("#FFD93D"))

	return &WaitModel{
		title:    title,
		message:  message,
		spinner:  s,
		run:      run,
		cancel:   cancel,
		renderer: renderer,
	}
}

// Init bubbletea 초기화 함수
func (m *WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

// wait 작업을 실행하는 커맨드
func (m *WaitModel) wait() tea.Msg {
	return taskDoneMsg{err: m.run()}
}

// Update bubbletea 업데이트 함수
func (m *WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.err = ErrCanceled
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case urlMsg:
		m.url = string(msg)
		return m, nil

	case taskDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View bubbletea 뷰 함수
func (m *WaitModel) View() string {
	if m.done {
		return ""
	}

	titleStyle := m.renderer.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)
	urlStyle := m.renderer.NewStyle().
		Foreground(lipgloss.Color("#4ECDC4")).
		Underline(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	if m.url != "" {
		b.WriteString(urlStyle.Render(m.url))
		b.WriteString("\n\n")
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.message)
	b.WriteString("  (ctrl+c: 취소)\n")
	return b.String()
}

// Err 작업 또는 취소 결과
func (m *WaitModel) Err() error {
	return m.err
}

// Wait 작업이 끝날 때까지 out에 대기 화면을 그립니다. in이 nil이면 키 입력을 받지 않습니다
func Wait(ctx context.Context, in io.Reader, out io.Writer, title, message string, task WaitTask) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	showURL := func(url string) {
		program.Send(urlMsg(url))
	}
	model := newWaitModel(out, title, message, func() error {
		return task(ctx, showURL)
	}, cancel)

	program = tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return err
	}
	return final.(*WaitModel).Err()
}
