package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gdocs-cli/auth"
	"gdocs-cli/models"
	"gdocs-cli/ui"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// commandError 종료 코드와 JSON 오류 봉투를 함께 가진 오류.
// silent이면 봉투를 출력하지 않고 종료 코드만 전달합니다 (예: 사용법 출력 후 종료)
type commandError struct {
	exit     int
	response models.ErrorResponse
	err      error
	silent   bool
}

func (e *commandError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.response.Message
}

func (e *commandError) Unwrap() error {
	return e.err
}

func newCommandError(exit int, code, operation, message string, err error) *commandError {
	return &commandError{
		exit: exit,
		response: models.ErrorResponse{
			Status:    models.StatusError,
			ErrorCode: code,
			Operation: operation,
			Message:   message,
		},
		err: err,
	}
}

// invalidArgs 입력 오류 (종료 코드 4)
func invalidArgs(code, operation, message string) *commandError {
	return newCommandError(models.ExitInvalidArgs, code, operation, message, nil)
}

func silentExit(exit int) *commandError {
	return &commandError{exit: exit, silent: true}
}

// classify 작업 중 발생한 오류를 종료 코드와 오류 코드로 분류합니다
func classify(operation, failMessage string, err error) *commandError {
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}

	var required *auth.RequiredError
	if errors.As(err, &required) {
		return authRequired(required)
	}

	if errors.Is(err, auth.ErrCredentialsMissing) {
		return newCommandError(models.ExitAuthError, models.CodeCredentialsMissing, operation,
			"OAuth client secret not found: "+err.Error(), err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return newCommandError(models.ExitAuthError, models.CodeAuthFailed, operation,
			"Authorization failed: "+err.Error(), err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		cmdErr := newCommandError(models.ExitAPIError, models.CodeAPIError, operation,
			"Google Docs API error: "+apiMessage(apiErr), err)
		cmdErr.response.Details = apiDetails(apiErr)
		return cmdErr
	}

	return newCommandError(models.ExitOperationFailed, models.FailedCode(operation), operation,
		fmt.Sprintf("%s: %v", failMessage, err), err)
}

func authRequired(required *auth.RequiredError) *commandError {
	cmdErr := newCommandError(models.ExitAuthError, models.CodeAuthRequired, "",
		"Authorization required. Please visit the URL and enter the code.", required)
	cmdErr.response.AuthURL = required.AuthURL
	cmdErr.response.Instructions = authInstructions()
	return cmdErr
}

func authInstructions() []string {
	return []string{
		"1. Visit the authorization URL",
		"2. Grant access to Google Docs, Drive, Sheets, Calendar, Contacts, and Gmail",
		"3. Copy the authorization code",
		fmt.Sprintf("4. Run: %s auth <code>", programName),
	}
}

func apiMessage(apiErr *googleapi.Error) string {
	if apiErr.Message != "" {
		return fmt.Sprintf("%d %s", apiErr.Code, apiErr.Message)
	}
	return apiErr.Error()
}

// apiDetails 응답 본문이 JSON이면 그대로, 아니면 문자열로 넣습니다
func apiDetails(apiErr *googleapi.Error) any {
	body := strings.TrimSpace(apiErr.Body)
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

// exitCode 실행 결과를 출력하고 프로세스 종료 코드로 바꿉니다
func (a *app) exitCode(err error) int {
	if err == nil {
		return models.ExitSuccess
	}

	var cmdErr *commandError
	if !errors.As(err, &cmdErr) {
		// cobra 플래그 파싱 오류 등
		cmdErr = invalidArgs(models.CodeInvalidArguments, "", err.Error())
	}
	if cmdErr.silent {
		return cmdErr.exit
	}

	if cmdErr.response.ErrorCode == models.CodeAuthRequired && a.isTerminal(a.stderr) {
		ui.Hint{
			Title: "Google authorization required",
			URL:   cmdErr.response.AuthURL,
			Steps: cmdErr.response.Instructions,
		}.Print(a.stderr)
	}

	if werr := writeJSON(a.stdout, cmdErr.response); werr != nil {
		a.logger.Error("오류 응답 출력 실패", "error", werr)
	}
	return cmdErr.exit
}
