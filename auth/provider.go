package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// OOBRedirectURL 코드를 직접 복사해 붙여 넣는 방식의 리다이렉트 주소
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// Scopes 모든 Google 스킬이 공유하는 토큰의 권한 범위
var Scopes = []string{
	docs.DocumentsScope,
	drive.DriveScope,
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/contacts",
	"https://www.googleapis.com/auth/gmail.modify",
}

// ErrCredentialsMissing OAuth 클라이언트 비밀 파일이 없을 때 반환됩니다
var ErrCredentialsMissing = errors.New("OAuth 클라이언트 비밀 파일이 없습니다")

// ErrTokenExpired 저장된 토큰이 만료되었고 갱신 토큰도 없을 때 RequiredError에 담깁니다
var ErrTokenExpired = errors.New("토큰이 만료되었고 refresh token이 없습니다")

// RequiredError 사용자가 인증 URL을 방문해야 할 때 반환됩니다
type RequiredError struct {
	AuthURL string
	Err     error // 저장된 토큰 갱신이 거부된 경우의 원인
}

func (e *RequiredError) Error() string {
	if e.Err != nil {
		return "인증이 필요합니다: " + e.Err.Error()
	}
	return "인증이 필요합니다"
}

func (e *RequiredError) Unwrap() error {
	return e.Err
}

// Config Provider 설정
type Config struct {
	CredentialsPath string
	TokenPath       string
	RedirectURL     string // 비어 있으면 클라이언트 비밀 파일의 첫 redirect_uri, 그것도 없으면 OOB
	Logger          *slog.Logger
}

// Provider OAuth 인증 흐름과 토큰 저장을 담당합니다
type Provider struct {
	oauth  *oauth2.Config
	store  *TokenStore
	logger *slog.Logger
}

// NewProvider 클라이언트 비밀 파일을 읽어 Provider를 생성합니다
func NewProvider(cfg Config) (*Provider, error) {
	data, err := os.ReadFile(cfg.CredentialsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsMissing, cfg.CredentialsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("클라이언트 비밀 파일 읽기 실패: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("클라이언트 비밀 파일 파싱 실패: %w", err)
	}
	if cfg.RedirectURL != "" {
		oauthConfig.RedirectURL = cfg.RedirectURL
	}
	if oauthConfig.RedirectURL == "" {
		oauthConfig.RedirectURL = OOBRedirectURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Provider{
		oauth:  oauthConfig,
		store:  NewTokenStore(cfg.TokenPath),
		logger: logger,
	}, nil
}

// Store 토큰 저장소
func (p *Provider) Store() *TokenStore {
	return p.store
}

// AuthURL 사용자가 방문할 동의 화면 URL. refresh token을 받기 위해 offline 접근과 재동의를 요청합니다
func (p *Provider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange 인증 코드를 토큰으로 교환하고 저장합니다
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("인증 코드 교환 실패: %w", err)
	}
	if err := p.store.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// TokenSource 저장된 토큰으로 TokenSource를 만듭니다. 만료된 토큰은 즉시 갱신해서 저장하고,
// 토큰이 없거나 갱신할 수 없거나 갱신이 거부되면 *RequiredError를 반환합니다
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := p.store.Load()
	if errors.Is(err, ErrNoToken) {
		return nil, &RequiredError{AuthURL: p.AuthURL(uuid.NewString())}
	}
	if err != nil {
		return nil, err
	}
	if !token.Valid() && token.RefreshToken == "" {
		return nil, &RequiredError{AuthURL: p.AuthURL(uuid.NewString()), Err: ErrTokenExpired}
	}

	source := &persistingSource{
		base:   p.oauth.TokenSource(ctx, token),
		store:  p.store,
		last:   token.AccessToken,
		logger: p.logger,
	}

	if _, err := source.Token(); err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &RequiredError{AuthURL: p.AuthURL(uuid.NewString()), Err: err}
		}
		return nil, fmt.Errorf("토큰 갱신 실패: %w", err)
	}
	return source, nil
}

// persistingSource 갱신된 토큰을 저장소에 다시 기록하는 TokenSource
type persistingSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.store.Save(token); err != nil {
			s.logger.Warn("갱신된 토큰 저장 실패", "path", s.store.Path(), "error", err)
		} else {
			s.logger.Debug("갱신된 토큰 저장", "path", s.store.Path(), "expiry", token.Expiry)
		}
		s.last = token.AccessToken
	}
	return token, nil
}
