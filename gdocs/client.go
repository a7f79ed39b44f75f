package gdocs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultMaxRetries = 3
	defaultRetryBase  = time.Second
	maxRetryDelay     = 30 * time.Second

	documentMimeType = "application/vnd.google-apps.document"
	codeFontFamily   = "Courier New"
)

// Options Client 생성 옵션
type Options struct {
	MaxRetries int           // 429/5xx 재시도 횟수 (음수이면 재시도 없음)
	RetryBase  time.Duration // 첫 재시도 대기 시간
	MaxDepth   int           // 표 중첩 최대 깊이
	Logger     *slog.Logger

	// 테스트나 프록시용 엔드포인트 재정의
	DocsEndpoint  string
	DriveEndpoint string
}

// Client Google Docs / Drive API를 감싸는 구조체
type Client struct {
	docs       *docs.Service
	drive      *drive.Service
	flattener  Flattener
	maxRetries int
	retryBase  time.Duration
	logger     *slog.Logger
}

// NewClient 새로운 Docs 클라이언트를 생성합니다. opts에는 인증 옵션(WithTokenSource, WithHTTPClient 등)을 넘깁니다
func NewClient(ctx context.Context, o Options, opts ...option.ClientOption) (*Client, error) {
	docsOpts := opts
	if o.DocsEndpoint != "" {
		docsOpts = append(append([]option.ClientOption{}, opts...), option.WithEndpoint(o.DocsEndpoint))
	}
	docsService, err := docs.NewService(ctx, docsOpts...)
	if err != nil {
		return nil, fmt.Errorf("Docs 서비스 생성 실패: %w", err)
	}

	driveOpts := opts
	if o.DriveEndpoint != "" {
		driveOpts = append(append([]option.ClientOption{}, opts...), option.WithEndpoint(o.DriveEndpoint))
	}
	driveService, err := drive.NewService(ctx, driveOpts...)
	if err != nil {
		return nil, fmt.Errorf("Drive 서비스 생성 실패: %w", err)
	}

	maxRetries := o.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	retryBase := o.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		docs:       docsService,
		drive:      driveService,
		flattener:  Flattener{MaxDepth: o.MaxDepth},
		maxRetries: maxRetries,
		retryBase:  retryBase,
		logger:     logger,
	}, nil
}

// Document 문서를 새로 가져옵니다 (캐시하지 않음)
func (c *Client) Document(ctx context.Context, documentID string) (*docs.Document, error) {
	return withRetry(ctx, c, "documents.get", true, func() (*docs.Document, error) {
		return c.docs.Documents.Get(documentID).Context(ctx).Do()
	})
}

// Text 문서 본문을 평문으로 변환합니다
func (c *Client) Text(doc *docs.Document) (string, error) {
	if doc == nil || doc.Body == nil {
		return "", nil
	}
	return c.flattener.Flatten(doc.Body.Content)
}

// BatchUpdate 요청 묶음을 한 번의 batchUpdate 호출로 보냅니다
func (c *Client) BatchUpdate(ctx context.Context, documentID string, requests []*docs.Request) (*docs.BatchUpdateDocumentResponse, error) {
	body := &docs.BatchUpdateDocumentRequest{Requests: requests}
	return withRetry(ctx, c, "documents.batchUpdate", false, func() (*docs.BatchUpdateDocumentResponse, error) {
		return c.docs.Documents.BatchUpdate(documentID, body).Context(ctx).Do()
	})
}

// InsertText index 위치에 텍스트를 삽입합니다
func (c *Client) InsertText(ctx context.Context, documentID, text string, index int64) (*docs.BatchUpdateDocumentResponse, error) {
	return c.BatchUpdate(ctx, documentID, []*docs.Request{insertTextRequest(text, index)})
}

// InsertMarkdown 마크다운을 변환해서 index 위치에 삽입합니다. 삽입된 평문을 함께 반환하며
// 변환 결과가 비어 있으면 요청을 보내지 않습니다
func (c *Client) InsertMarkdown(ctx context.Context, documentID, markdown string, index int64) (*docs.BatchUpdateDocumentResponse, string, error) {
	conv, err := ConvertMarkdown([]byte(markdown), index)
	if err != nil {
		return nil, "", err
	}
	requests := conv.Requests()
	if len(requests) == 0 {
		return nil, "", nil
	}
	resp, err := c.BatchUpdate(ctx, documentID, requests)
	if err != nil {
		return nil, "", err
	}
	return resp, conv.Text, nil
}

// AppendText 본문 마지막 요소의 끝(마지막 줄바꿈 앞)에 텍스트를 추가하고 삽입 위치를 반환합니다
func (c *Client) AppendText(ctx context.Context, documentID, text string) (int64, *docs.BatchUpdateDocumentResponse, error) {
	doc, err := c.Document(ctx, documentID)
	if err != nil {
		return 0, nil, err
	}

	index := EndOfBody(doc)
	resp, err := c.InsertText(ctx, documentID, text, index)
	if err != nil {
		return 0, nil, err
	}
	return index, resp, nil
}

// EndOfBody 추가 삽입에 쓸 본문 끝 인덱스. 본문이 비어 있으면 1
func EndOfBody(doc *docs.Document) int64 {
	if doc == nil || doc.Body == nil || len(doc.Body.Content) == 0 {
		return 1
	}
	last := doc.Body.Content[len(doc.Body.Content)-1]
	if last == nil || last.EndIndex-1 < 1 {
		return 1
	}
	return last.EndIndex - 1
}

// ReplaceAllText 문서 전체에서 찾아 바꾸고 바뀐 횟수를 반환합니다
func (c *Client) ReplaceAllText(ctx context.Context, documentID, find, replace string, matchCase bool) (int64, error) {
	req := &docs.Request{
		ReplaceAllText: &docs.ReplaceAllTextRequest{
			ContainsText: &docs.SubstringMatchCriteria{
				Text:            find,
				MatchCase:       matchCase,
				ForceSendFields: []string{"MatchCase"},
			},
			ReplaceText:     replace,
			ForceSendFields: []string{"ReplaceText"},
		},
	}

	resp, err := c.BatchUpdate(ctx, documentID, []*docs.Request{req})
	if err != nil {
		return 0, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0] == nil || resp.Replies[0].ReplaceAllText == nil {
		return 0, nil
	}
	return resp.Replies[0].ReplaceAllText.OccurrencesChanged, nil
}

// TextFormat 글자 서식. nil 필드는 변경하지 않습니다
type TextFormat struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
}

// Empty 변경할 서식이 하나도 없으면 true
func (f TextFormat) Empty() bool {
	return f.Bold == nil && f.Italic == nil && f.Underline == nil
}

// Applied 요청에 포함될 서식만 담은 맵
func (f TextFormat) Applied() map[string]bool {
	applied := map[string]bool{}
	if f.Bold != nil {
		applied["bold"] = *f.Bold
	}
	if f.Italic != nil {
		applied["italic"] = *f.Italic
	}
	if f.Underline != nil {
		applied["underline"] = *f.Underline
	}
	return applied
}

// style TextStyle과 fields 마스크를 만듭니다. false 값도 전송되도록 ForceSendFields를 채웁니다
func (f TextFormat) style() (*docs.TextStyle, string) {
	style := &docs.TextStyle{}
	var fields []string
	if f.Bold != nil {
		style.Bold = *f.Bold
		style.ForceSendFields = append(style.ForceSendFields, "Bold")
		fields = append(fields, "bold")
	}
	if f.Italic != nil {
		style.Italic = *f.Italic
		style.ForceSendFields = append(style.ForceSendFields, "Italic")
		fields = append(fields, "italic")
	}
	if f.Underline != nil {
		style.Underline = *f.Underline
		style.ForceSendFields = append(style.ForceSendFields, "Underline")
		fields = append(fields, "underline")
	}
	return style, strings.Join(fields, ",")
}

// FormatText [start, end) 구간에 서식을 적용합니다
func (c *Client) FormatText(ctx context.Context, documentID string, start, end int64, format TextFormat) error {
	style, fields := format.style()
	req := &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range:     &docs.Range{StartIndex: start, EndIndex: end},
			TextStyle: style,
			Fields:    fields,
		},
	}
	_, err := c.BatchUpdate(ctx, documentID, []*docs.Request{req})
	return err
}

// InsertPageBreak index 위치에 페이지 나눔을 넣습니다
func (c *Client) InsertPageBreak(ctx context.Context, documentID string, index int64) error {
	req := &docs.Request{
		InsertPageBreak: &docs.InsertPageBreakRequest{
			Location: &docs.Location{Index: index},
		},
	}
	_, err := c.BatchUpdate(ctx, documentID, []*docs.Request{req})
	return err
}

// DeleteContentRange [start, end) 구간을 지웁니다
func (c *Client) DeleteContentRange(ctx context.Context, documentID string, start, end int64) error {
	req := &docs.Request{
		DeleteContentRange: &docs.DeleteContentRangeRequest{
			Range: &docs.Range{StartIndex: start, EndIndex: end},
		},
	}
	_, err := c.BatchUpdate(ctx, documentID, []*docs.Request{req})
	return err
}

// CreateDocument 새 문서를 만들고 content가 있으면 맨 앞에 삽입합니다.
// markdown이 true이면 content를 마크다운으로 변환합니다
func (c *Client) CreateDocument(ctx context.Context, title, content string, markdown bool) (*docs.Document, error) {
	doc, err := withRetry(ctx, c, "documents.create", false, func() (*docs.Document, error) {
		return c.docs.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}

	if content == "" {
		return doc, nil
	}

	var resp *docs.BatchUpdateDocumentResponse
	if markdown {
		resp, _, err = c.InsertMarkdown(ctx, doc.DocumentId, content, 1)
	} else {
		resp, err = c.InsertText(ctx, doc.DocumentId, content, 1)
	}
	if err != nil {
		return nil, fmt.Errorf("초기 내용 삽입 실패 (문서 %s): %w", doc.DocumentId, err)
	}
	if rev := RevisionID(resp); rev != "" {
		doc.RevisionId = rev
	}
	return doc, nil
}

// ListDocuments Drive에서 Google Docs 문서를 최근 수정 순으로 찾습니다
func (c *Client) ListDocuments(ctx context.Context, nameContains string, limit int64) ([]*drive.File, error) {
	q := fmt.Sprintf("mimeType = '%s' and trashed = false", documentMimeType)
	if nameContains != "" {
		q += fmt.Sprintf(" and name contains '%s'", escapeQuery(nameContains))
	}
	if limit <= 0 {
		limit = 20
	}

	list, err := withRetry(ctx, c, "files.list", true, func() (*drive.FileList, error) {
		return c.drive.Files.List().
			Q(q).
			PageSize(limit).
			OrderBy("modifiedTime desc").
			Fields("files(id,name,modifiedTime,webViewLink)").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, err
	}
	return list.Files, nil
}

// escapeQuery Drive 검색식의 작은따옴표 문자열 안에 넣을 수 있게 이스케이프합니다
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// RevisionID batchUpdate 응답의 새 리비전 ID
func RevisionID(resp *docs.BatchUpdateDocumentResponse) string {
	if resp == nil || resp.WriteControl == nil {
		return ""
	}
	return resp.WriteControl.RequiredRevisionId
}

// TextLength 문서 인덱스 단위(UTF-16 코드 유닛)로 센 텍스트 길이
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func insertTextRequest(text string, index int64) *docs.Request {
	return &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: index},
			Text:     text,
		},
	}
}

// withRetry Rate limit(429) 오류는 항상, 5xx 오류는 idempotent 호출일 때만 재시도합니다
func withRetry[T any](ctx context.Context, c *Client, call string, idempotent bool, fn func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if attempt >= c.maxRetries || !isRetryable(err, idempotent) {
			return result, err
		}

		delay := c.backoff(attempt)
		c.logger.Warn("API 요청 재시도", "call", call, "attempt", attempt+1, "max_retries", c.maxRetries, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func isRetryable(err error, idempotent bool) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return idempotent
	}
	return false
}

// backoff attempt(0부터)에 대한 지수 대기 시간에 지터를 더합니다
func (c *Client) backoff(attempt int) time.Duration {
	base := c.retryBase << uint(attempt)
	if base <= 0 || base > maxRetryDelay {
		base = maxRetryDelay
	}
	if half := int64(base) / 2; half > 0 {
		return base + time.Duration(rand.Int64N(half))
	}
	return base
}
