package models

import "strings"

// 응답 상태
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// 프로세스 종료 코드
const (
	ExitSuccess         = 0
	ExitOperationFailed = 1
	ExitAuthError       = 2
	ExitAPIError        = 3
	ExitInvalidArgs     = 4
)

// 오류 코드. 작업별 실패 코드는 FailedCode로 만듭니다
const (
	CodeAuthRequired          = "AUTH_REQUIRED"
	CodeAuthFailed            = "AUTH_FAILED"
	CodeCredentialsMissing    = "CREDENTIALS_MISSING"
	CodeAPIError              = "API_ERROR"
	CodeMissingCode           = "MISSING_CODE"
	CodeMissingDocumentID     = "MISSING_DOCUMENT_ID"
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeInvalidJSON           = "INVALID_JSON"
	CodeInvalidCommand        = "INVALID_COMMAND"
	CodeInvalidArguments      = "INVALID_ARGUMENTS"
	CodeConfigError           = "CONFIG_ERROR"
)

// ErrorResponse 모든 실패에 공통으로 쓰이는 JSON 봉투
type ErrorResponse struct {
	Status        string   `json:"status"`
	ErrorCode     string   `json:"error_code"`
	Operation     string   `json:"operation,omitempty"`
	Message       string   `json:"message"`
	Details       any      `json:"details,omitempty"`
	AuthURL       string   `json:"auth_url,omitempty"`
	Instructions  []string `json:"instructions,omitempty"`
	ValidCommands []string `json:"valid_commands,omitempty"`
	Usage         string   `json:"usage,omitempty"`
}

// FailedCode 작업 이름에서 <OP>_FAILED 코드를 만듭니다 (page_break -> PAGE_BREAK_FAILED)
func FailedCode(operation string) string {
	return strings.ToUpper(strings.ReplaceAll(operation, "-", "_")) + "_FAILED"
}
