package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gdocs-cli/auth"
	"gdocs-cli/gdocs"
	"gdocs-cli/models"
	"gdocs-cli/ui"

	"github.com/spf13/cobra"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

const (
	programName    = "gdocs"
	listenTimeout  = 5 * time.Minute
	defaultListMax = 20
)

var validCommands = []string{
	"auth", "read", "structure", "insert", "append", "replace",
	"format", "page-break", "create", "delete", "list",
}

const usageText = `Google Docs Manager - Document Operations CLI

Commands:
  auth <code>              Complete OAuth authorization with code
  auth --listen ADDR       Complete OAuth authorization via a local redirect
  read <document_id>       Read document content
  structure <document_id>  Get document structure (headings)
  insert                   Insert text at specific index (JSON via stdin)
  append                   Append text to end of document (JSON via stdin)
  replace                  Find and replace text (JSON via stdin)
  format                   Format text (bold, italic, underline) (JSON via stdin)
  page-break               Insert page break (JSON via stdin)
  create                   Create new document (JSON via stdin)
  delete                   Delete content range (JSON via stdin)
  list [query]             List recent Google Docs documents

JSON Input Formats:
  insert      {"document_id": "abc123", "text": "Hello", "index": 1, "content_format": "text|markdown"}
  append      {"document_id": "abc123", "text": "More text"}
  replace     {"document_id": "abc123", "find": "old", "replace": "new", "match_case": false}
  format      {"document_id": "abc123", "start_index": 1, "end_index": 10, "bold": true, "italic": true, "underline": true}
  page-break  {"document_id": "abc123", "index": 100}
  create      {"title": "New Document", "content": "Initial content", "content_format": "text|markdown"}
  delete      {"document_id": "abc123", "start_index": 1, "end_index": 10}

Examples:
  gdocs read 1abc-xyz-123
  echo '{"document_id":"abc123","text":"Hello World","index":1}' | gdocs insert
  echo '{"title":"My Document","content":"# Title\n\nHello **World**","content_format":"markdown"}' | gdocs create

Exit Codes:
  0 - Success
  1 - Operation failed
  2 - Authentication error
  3 - API error
  4 - Invalid arguments`

// newRootCommand 명령 트리를 구성합니다
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Google Docs document operations with JSON input and output",
		Long:          usageText,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				return nil
			}
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := cmd.Help(); err != nil {
					return err
				}
				return silentExit(models.ExitInvalidArgs)
			}
			cmdErr := invalidArgs(models.CodeInvalidCommand, "", "Invalid command: "+args[0])
			cmdErr.response.ValidCommands = validCommands
			return cmdErr
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (default ~/.claude/.google/docs_config.json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.authCommand(),
		a.readCommand(),
		a.structureCommand(),
		a.insertCommand(),
		a.appendCommand(),
		a.replaceCommand(),
		a.formatCommand(),
		a.pageBreakCommand(),
		a.createCommand(),
		a.deleteCommand(),
		a.listCommand(),
	)
	return root
}

// client 저장된 토큰으로 API 클라이언트를 만듭니다
func (a *app) client(ctx context.Context) (*gdocs.Client, error) {
	if a.newClient != nil {
		return a.newClient(ctx)
	}

	provider, err := a.provider()
	if err != nil {
		return nil, err
	}
	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	maxRetries := a.config.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	return gdocs.NewClient(ctx, gdocs.Options{
		MaxRetries: maxRetries,
		MaxDepth:   a.config.MaxDepth,
		Logger:     a.logger,
	}, option.WithTokenSource(ts), option.WithUserAgent(a.config.ApplicationName))
}

func (a *app) provider() (*auth.Provider, error) {
	return auth.NewProvider(auth.Config{
		CredentialsPath: a.config.CredentialsPath,
		TokenPath:       a.config.TokenPath,
		RedirectURL:     a.config.RedirectURL,
		Logger:          a.logger,
	})
}

// perform 클라이언트를 준비해 fn을 실행하고 결과를 출력합니다
func (a *app) perform(cmd *cobra.Command, operation, failMessage string, fn func(ctx context.Context, client *gdocs.Client) (any, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.config.RequestTimeout())
	defer cancel()

	logger := a.logger.With("operation", operation)
	start := time.Now()

	client, err := a.client(ctx)
	if err != nil {
		logger.Warn("클라이언트 준비 실패", "error", err)
		return classify(operation, failMessage, err)
	}

	result, err := fn(ctx, client)
	if err != nil {
		logger.Error("작업 실패", "error", err, "elapsed", time.Since(start))
		return classify(operation, failMessage, err)
	}

	logger.Info("작업 완료", "elapsed", time.Since(start))
	return writeJSON(a.stdout, result)
}

func (a *app) authCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "auth [code]",
		Short: "Complete OAuth authorization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && listen == "" {
				cmdErr := invalidArgs(models.CodeMissingCode, "", "Authorization code required")
				cmdErr.response.Usage = programName + " auth <code>"
				return cmdErr
			}

			provider, err := a.provider()
			if err != nil {
				return classify("auth", "Authorization failed", err)
			}

			if len(args) > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), a.config.RequestTimeout())
				defer cancel()
				_, err = provider.Exchange(ctx, args[0])
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), listenTimeout)
				defer cancel()
				err = a.loginLoopback(ctx, provider, listen)
			}
			if err != nil {
				a.logger.Error("인증 실패", "error", err)
				return newCommandError(models.ExitAuthError, models.CodeAuthFailed, "",
					"Authorization failed: "+err.Error(), err)
			}

			a.logger.Info("토큰 저장 완료", "path", provider.Store().Path())
			return writeJSON(a.stdout, models.AuthResult{
				Status:    models.StatusSuccess,
				Message:   "Authorization complete. Token stored successfully.",
				TokenPath: provider.Store().Path(),
				Scopes:    auth.Scopes,
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "receive the OAuth redirect on this address (e.g. 127.0.0.1:8085)")
	return cmd
}

// loginLoopback 리다이렉트를 기다리는 동안 터미널이면 대기 화면을, 아니면 안내문을 stderr에 보여줍니다
func (a *app) loginLoopback(ctx context.Context, provider *auth.Provider, addr string) error {
	const title = "Open this URL to authorize"
	waiting := "Waiting for the redirect on " + addr

	if a.isTerminal(a.stderr) {
		var in io.Reader
		if isTerminalInput(a.stdin) {
			in = a.stdin
		}
		return ui.Wait(ctx, in, a.stderr, title, waiting, func(ctx context.Context, showURL func(string)) error {
			_, err := provider.LoginLoopback(ctx, addr, showURL)
			return err
		})
	}

	_, err := provider.LoginLoopback(ctx, addr, func(authURL string) {
		ui.Hint{Title: title, URL: authURL, Steps: []string{waiting}}.Print(a.stderr)
	})
	return err
}

func requireDocumentID(operation string, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", invalidArgs(models.CodeMissingDocumentID, operation, "Document ID required")
	}
	return args[0], nil
}

func bodyContent(doc *docs.Document) []*docs.StructuralElement {
	if doc == nil || doc.Body == nil {
		return nil
	}
	return doc.Body.Content
}

func (a *app) readCommand() *cobra.Command {
	const op = "read"
	return &cobra.Command{
		Use:   "read <document_id>",
		Short: "Read document content",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireDocumentID(op, args)
			if err != nil {
				return err
			}
			return a.perform(cmd, op, "Failed to read document", func(ctx context.Context, c *gdocs.Client) (any, error) {
				doc, err := c.Document(ctx, id)
				if err != nil {
					return nil, err
				}
				content, err := c.Text(doc)
				if err != nil {
					return nil, err
				}
				return models.ReadResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: id,
					Title:      doc.Title,
					Content:    content,
					RevisionID: doc.RevisionId,
				}, nil
			})
		},
	}
}

func (a *app) structureCommand() *cobra.Command {
	const op = "structure"
	return &cobra.Command{
		Use:   "structure <document_id>",
		Short: "Get document structure (headings)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireDocumentID(op, args)
			if err != nil {
				return err
			}
			return a.perform(cmd, op, "Failed to get document structure", func(ctx context.Context, c *gdocs.Client) (any, error) {
				doc, err := c.Document(ctx, id)
				if err != nil {
					return nil, err
				}
				return models.StructureResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: id,
					Title:      doc.Title,
					Structure:  gdocs.ExtractHeadings(bodyContent(doc)),
				}, nil
			})
		},
	}
}

func (a *app) insertCommand() *cobra.Command {
	const op = "insert"
	return &cobra.Command{
		Use:   "insert",
		Short: "Insert text at specific index (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in insertInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			markdown, err := in.validate(op)
			if err != nil {
				return err
			}
			id, index := *in.DocumentID, *in.Index

			return a.perform(cmd, op, "Failed to insert text", func(ctx context.Context, c *gdocs.Client) (any, error) {
				text := *in.Text
				var resp *docs.BatchUpdateDocumentResponse
				var err error
				if markdown {
					resp, text, err = c.InsertMarkdown(ctx, id, text, index)
				} else {
					resp, err = c.InsertText(ctx, id, text, index)
				}
				if err != nil {
					return nil, err
				}
				return models.InsertResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: id,
					InsertedAt: index,
					TextLength: gdocs.TextLength(text),
					RevisionID: gdocs.RevisionID(resp),
				}, nil
			})
		},
	}
}

func (a *app) appendCommand() *cobra.Command {
	const op = "append"
	return &cobra.Command{
		Use:   "append",
		Short: "Append text to end of document (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in appendInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			if err := in.validate(op); err != nil {
				return err
			}
			id, text := *in.DocumentID, *in.Text

			return a.perform(cmd, op, "Failed to append text", func(ctx context.Context, c *gdocs.Client) (any, error) {
				index, resp, err := c.AppendText(ctx, id, text)
				if err != nil {
					return nil, err
				}
				return models.AppendResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: id,
					AppendedAt: index,
					TextLength: gdocs.TextLength(text),
					RevisionID: gdocs.RevisionID(resp),
				}, nil
			})
		},
	}
}

func (a *app) replaceCommand() *cobra.Command {
	const op = "replace"
	return &cobra.Command{
		Use:   "replace",
		Short: "Find and replace text (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in replaceInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			if err := in.validate(op); err != nil {
				return err
			}
			id, find, replace := *in.DocumentID, *in.Find, *in.Replace

			return a.perform(cmd, op, "Failed to replace text", func(ctx context.Context, c *gdocs.Client) (any, error) {
				n, err := c.ReplaceAllText(ctx, id, find, replace, in.MatchCase)
				if err != nil {
					return nil, err
				}
				return models.ReplaceResult{
					Status:      models.StatusSuccess,
					Operation:   op,
					DocumentID:  id,
					Find:        find,
					Replace:     replace,
					Occurrences: n,
				}, nil
			})
		},
	}
}

func (a *app) formatCommand() *cobra.Command {
	const op = "format"
	return &cobra.Command{
		Use:   "format",
		Short: "Format text (bold, italic, underline) (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in formatInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			format, err := in.validate(op)
			if err != nil {
				return err
			}
			id, start, end := *in.DocumentID, *in.StartIndex, *in.EndIndex

			return a.perform(cmd, op, "Failed to format text", func(ctx context.Context, c *gdocs.Client) (any, error) {
				if err := c.FormatText(ctx, id, start, end, format); err != nil {
					return nil, err
				}
				return models.FormatResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: id,
					Range:      models.Range{Start: start, End: end},
					Formatting: format.Applied(),
				}, nil
			})
		},
	}
}

func (a *app) pageBreakCommand() *cobra.Command {
	const op = "page_break"
	return &cobra.Command{
		Use:   "page-break",
		Short: "Insert page break (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in pageBreakInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			if err := in.validate(op); err != nil {
				return err
			}
			id, index := *in.DocumentID, *in.Index

			return a.perform(cmd, op, "Failed to insert page break", func(ctx context.Context, c *gdocs.Client) (any, error) {
				if err := c.InsertPageBreak(ctx, id, index); err != nil {
					return nil, err
				}
				return models.PageBreakResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: id,
					InsertedAt: index,
				}, nil
			})
		},
	}
}

func (a *app) createCommand() *cobra.Command {
	const op = "create"
	return &cobra.Command{
		Use:   "create",
		Short: "Create new document (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in createInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			markdown, err := in.validate(op)
			if err != nil {
				return err
			}
			title := *in.Title

			return a.perform(cmd, op, "Failed to create document", func(ctx context.Context, c *gdocs.Client) (any, error) {
				doc, err := c.CreateDocument(ctx, title, in.Content, markdown)
				if err != nil {
					return nil, err
				}
				return models.CreateResult{
					Status:     models.StatusSuccess,
					Operation:  op,
					DocumentID: doc.DocumentId,
					Title:      doc.Title,
					RevisionID: doc.RevisionId,
				}, nil
			})
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	const op = "delete"
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete content range (JSON via stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in deleteInput
			if err := decodeInput(a.stdin, op, &in); err != nil {
				return err
			}
			if err := in.validate(op); err != nil {
				return err
			}
			id, start, end := *in.DocumentID, *in.StartIndex, *in.EndIndex

			return a.perform(cmd, op, "Failed to delete content", func(ctx context.Context, c *gdocs.Client) (any, error) {
				if err := c.DeleteContentRange(ctx, id, start, end); err != nil {
					return nil, err
				}
				return models.DeleteResult{
					Status:       models.StatusSuccess,
					Operation:    op,
					DocumentID:   id,
					DeletedRange: models.Range{Start: start, End: end},
				}, nil
			})
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	const op = "list"
	var limit int64
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List recent Google Docs documents, optionally filtered by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > 1000 {
				return invalidArgs(models.CodeInvalidArguments, op, fmt.Sprintf("--limit must be between 1 and 1000, got %d", limit))
			}
			var query string
			if len(args) > 0 {
				query = args[0]
			}

			return a.perform(cmd, op, "Failed to list documents", func(ctx context.Context, c *gdocs.Client) (any, error) {
				files, err := c.ListDocuments(ctx, query, limit)
				if err != nil {
					return nil, err
				}
				documents := make([]models.DocumentSummary, 0, len(files))
				for _, f := range files {
					documents = append(documents, models.DocumentSummary{
						DocumentID:   f.Id,
						Title:        f.Name,
						ModifiedTime: f.ModifiedTime,
						WebViewLink:  f.WebViewLink,
					})
				}
				return models.ListResult{
					Status:    models.StatusSuccess,
					Operation: op,
					Documents: documents,
				}, nil
			})
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", defaultListMax, "maximum number of documents")
	return cmd
}
