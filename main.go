package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gdocs-cli/gdocs"
	"gdocs-cli/models"

	"github.com/google/uuid"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run 인자를 실행하고 종료 코드를 반환합니다
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp(stdin, stdout, stderr).execute(ctx, args)
}

// app 명령 실행에 필요한 입출력과 공유 상태
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// 플래그
	configPath string
	verbose    bool

	config    *Config
	logger    *slog.Logger
	requestID string

	// 테스트에서 가짜 API 클라이언트를 주입할 때 사용
	newClient  func(ctx context.Context) (*gdocs.Client, error)
	isTerminal func(w io.Writer) bool
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		logger:     slog.New(slog.DiscardHandler),
		requestID:  uuid.NewString(),
		isTerminal: isTerminal,
	}
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return a.exitCode(root.ExecuteContext(ctx))
}

// setup 설정과 로거를 준비합니다
func (a *app) setup() error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return newCommandError(models.ExitOperationFailed, models.CodeConfigError, "", "Failed to load configuration: "+err.Error(), err)
	}
	a.config = config

	level := config.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = newLogger(a.stderr, level, a.isTerminal(a.stderr)).With("request_id", a.requestID)
	a.logger.Debug("설정 로드 완료", "credentials", config.CredentialsPath, "token", config.TokenPath)
	return nil
}

// newLogger 터미널이면 사람이 읽기 쉬운 텍스트, 아니면 JSON으로 stderr에 기록합니다
func newLogger(w io.Writer, level slog.Level, terminal bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func isTerminalInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
