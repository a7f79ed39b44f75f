package models

// Heading 문서 개요의 한 항목 (HEADING_n 스타일 단락)
type Heading struct {
	Level      int    `json:"level"`
	Text       string `json:"text"`
	StartIndex int64  `json:"start_index"`
	EndIndex   int64  `json:"end_index"`
}

// Range 문서 안의 인덱스 구간
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// ReadResult read 명령 결과
type ReadResult struct {
	Status     string `json:"status"`
	Operation  string `json:"operation"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	RevisionID string `json:"revision_id"`
}

// StructureResult structure 명령 결과
type StructureResult struct {
	Status     string    `json:"status"`
	Operation  string    `json:"operation"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Structure  []Heading `json:"structure"`
}

// InsertResult insert 명령 결과
type InsertResult struct {
	Status     string `json:"status"`
	Operation  string `json:"operation"`
	DocumentID string `json:"document_id"`
	InsertedAt int64  `json:"inserted_at"`
	TextLength int    `json:"text_length"`
	RevisionID string `json:"revision_id"`
}

// AppendResult append 명령 결과
type AppendResult struct {
	Status     string `json:"status"`
	Operation  string `json:"operation"`
	DocumentID string `json:"document_id"`
	AppendedAt int64  `json:"appended_at"`
	TextLength int    `json:"text_length"`
	RevisionID string `json:"revision_id"`
}

// ReplaceResult replace 명령 결과
type ReplaceResult struct {
	Status      string `json:"status"`
	Operation   string `json:"operation"`
	DocumentID  string `json:"document_id"`
	Find        string `json:"find"`
	Replace     string `json:"replace"`
	Occurrences int64  `json:"occurrences"`
}

// FormatResult format 명령 결과. Formatting에는 요청에 포함된 속성만 들어갑니다
type FormatResult struct {
	Status     string          `json:"status"`
	Operation  string          `json:"operation"`
	DocumentID string          `json:"document_id"`
	Range      Range           `json:"range"`
	Formatting map[string]bool `json:"formatting"`
}

// PageBreakResult page-break 명령 결과
type PageBreakResult struct {
	Status     string `json:"status"`
	Operation  string `json:"operation"`
	DocumentID string `json:"document_id"`
	InsertedAt int64  `json:"inserted_at"`
}

// CreateResult create 명령 결과
type CreateResult struct {
	Status     string `json:"status"`
	Operation  string `json:"operation"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	RevisionID string `json:"revision_id"`
}

// DeleteResult delete 명령 결과
type DeleteResult struct {
	Status       string `json:"status"`
	Operation    string `json:"operation"`
	DocumentID   string `json:"document_id"`
	DeletedRange Range  `json:"deleted_range"`
}

// DocumentSummary Drive 목록에 나오는 문서 한 건
type DocumentSummary struct {
	DocumentID   string `json:"document_id"`
	Title        string `json:"title"`
	ModifiedTime string `json:"modified_time,omitempty"`
	WebViewLink  string `json:"web_view_link,omitempty"`
}

// ListResult list 명령 결과
type ListResult struct {
	Status    string            `json:"status"`
	Operation string            `json:"operation"`
	Documents []DocumentSummary `json:"documents"`
}

// AuthResult auth 명령 결과
type AuthResult struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	TokenPath string   `json:"token_path"`
	Scopes    []string `json:"scopes"`
}
