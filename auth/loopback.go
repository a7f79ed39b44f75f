package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrLoopbackDenied 사용자가 동의 화면에서 거부했을 때
var ErrLoopbackDenied = errors.New("authorization denied")

type callbackResult struct {
	code string
	err  error
}

// LoginLoopback addr(예: 127.0.0.1:8085)에서 OAuth 리다이렉트를 받아 토큰을 발급받고 저장합니다.
// 서버가 준비되면 onReady에 동의 화면 URL을 넘깁니다
func (p *Provider) LoginLoopback(ctx context.Context, addr string, onReady func(authURL string)) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("콜백 서버 시작 실패: %w", err)
	}

	// 실제 포트(:0 지정 시)를 반영한 리다이렉트 주소로 설정을 복제
	loopback := *p
	oauthCopy := *p.oauth
	oauthCopy.RedirectURL = "http://" + listener.Addr().String() + "/"
	loopback.oauth = &oauthCopy

	state := uuid.NewString()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	p.logger.Info("OAuth 콜백 대기", "redirect_url", oauthCopy.RedirectURL)
	if onReady != nil {
		onReady(loopback.AuthURL(state))
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		return loopback.Exchange(ctx, res.code)
	}
}

func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	send := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if reason := q.Get("error"); reason != "" {
			send(callbackResult{err: fmt.Errorf("%w: %s", ErrLoopbackDenied, reason)})
			fmt.Fprintln(w, "Authorization was denied. You can close this window.")
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		send(callbackResult{code: code})
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
	})
	return r
}
