package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken 저장된 토큰이 없을 때 반환됩니다
var ErrNoToken = errors.New("저장된 토큰이 없습니다")

// TokenStore OAuth 토큰을 JSON 파일로 보관하는 저장소
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore path 위치의 토큰 저장소를 생성합니다. 파일은 첫 저장 때 만들어집니다
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path 토큰 파일 경로
func (s *TokenStore) Path() string {
	return s.path
}

// Exists 토큰 파일이 존재하는지 확인합니다
func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load 저장된 토큰을 읽습니다. 파일이 없거나 refresh token도 access token도 없으면 ErrNoToken
func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("토큰 파일 읽기 실패: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("토큰 파일 파싱 실패 (%s): %w", s.path, err)
	}
	if token.RefreshToken == "" && token.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &token, nil
}

// Save 토큰을 소유자만 읽을 수 있는 파일로 저장합니다
func (s *TokenStore) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("저장할 토큰이 없습니다")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("토큰 디렉터리 생성 실패: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("토큰 직렬화 실패: %w", err)
	}

	// 임시 파일에 쓴 뒤 교체
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("토큰 파일 쓰기 실패: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("토큰 파일 교체 실패: %w", err)
	}
	return nil
}
