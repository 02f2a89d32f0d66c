package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"xknowledge/internal/app"
	"xknowledge/internal/domain"
	"xknowledge/internal/extractor"
	"xknowledge/internal/usecases"
	"xknowledge/pkg/jsonnode"
)

// newCLIApp creates the CLI application. a may be nil for help, version and
// extract, which never touch the store.
func newCLIApp(a *app.App) *cli.App {
	cliApp := &cli.App{
		Name:    "xk",
		Usage:   "Extract, store and export X/Twitter bookmarks",
		Version: Version,
		Commands: []*cli.Command{
			extractCmd(),
			importCmd(a),
			listCmd(a),
			getCmd(a),
			deleteCmd(a),
			categoriesCmd(a),
			capturesCmd(a),
			exportCmd(a),
			analyzeCmd(a),
			notionCmd(a),
			captureCmd(a),
		},
	}
	// Return errors instead of exiting so tests can inspect them.
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// extractCmd runs the extractor over payload files and prints the records.
func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract bookmark records from GraphQL payload files (or stdin)",
		ArgsUsage: "[FILE...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "diagnostics", Aliases: []string{"d"}, Usage: "Print extraction diagnostics to stderr"},
		},
		Action: func(c *cli.Context) error {
			bodies, err := readBodies(c)
			if err != nil {
				return outputError(err)
			}

			payloads := make([]any, 0, len(bodies))
			for i, body := range bodies {
				node, err := jsonnode.Parse(body)
				if err != nil {
					fmt.Fprintf(c.App.ErrWriter, "payload %d: not valid json, skipped\n", i)
					node = nil
				}
				payloads = append(payloads, node)
			}

			recorder := &extractor.Recorder{}
			result := extractor.New(extractor.WithDiagnostics(recorder)).Run(payloads)

			if c.Bool("diagnostics") {
				for _, d := range recorder.All() {
					fmt.Fprintln(c.App.ErrWriter, d.String())
				}
			}
			return outputJSON(c, result.Records)
		},
	}
}

func importCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Store bookmarks from GraphQL payload files (or stdin); existing records are kept",
		ArgsUsage: "[FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "Source URL recorded with the capture batch"},
		},
		Action: func(c *cli.Context) error {
			bodies, err := readBodies(c)
			if err != nil {
				return outputError(err)
			}
			result, err := a.Ingest.Execute(c.Context, usecases.CaptureRequest{
				SourceURL: c.String("source"),
				Bodies:    bodies,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, result)
		},
	}
}

func listCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored bookmarks, newest capture first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this analysis category"},
			&cli.StringFlag{Name: "handle", Usage: "Only this author handle"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Substring of text, name or handle"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum records (0 for all)"},
			&cli.IntFlag{Name: "offset", Usage: "Records to skip"},
		},
		Action: func(c *cli.Context) error {
			records, err := a.List.Execute(c.Context, domain.ListFilter{
				Category: c.String("category"),
				Handle:   c.String("handle"),
				Query:    c.String("query"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, records)
		},
	}
}

func getCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one bookmark",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}
			record, err := a.Get.Execute(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, record)
		},
	}
}

func deleteCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one bookmark",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}
			if err := a.Delete.Execute(c.Context, id); err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"deleted": id})
		},
	}
}

func categoriesCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List analysis categories in use",
		Action: func(c *cli.Context) error {
			categories, err := a.Categories.Execute(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, categories)
		},
	}
}

func capturesCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "captures",
		Usage: "List recent capture batches",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum batches"},
		},
		Action: func(c *cli.Context) error {
			batches, err := a.Captures.Execute(c.Context, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, batches)
		},
	}
}

func exportCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export bookmarks as markdown, an offline zip, or json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "md", Usage: "Export format: md|zip|json"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default stdout)"},
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated bookmark IDs (default all)"},
		},
		Action: func(c *cli.Context) error {
			ids := parseIDs(c.String("ids"))

			out := c.String("out")
			if out == "" {
				if err := a.Export.Execute(c.Context, c.App.Writer, c.String("format"), ids); err != nil {
					return outputError(err)
				}
				return nil
			}

			if err := exportToFile(c.Context, a, out, c.String("format"), ids); err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"path": out})
		},
	}
}

// exportToFile writes to a temp file next to path and renames it, so a
// failed export never leaves a truncated file behind.
func exportToFile(ctx context.Context, a *app.App, path, format string, ids []string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".xk-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := a.Export.Execute(ctx, tmp, format, ids); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func analyzeCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run AI analysis on bookmarks (default: the next pending batch)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated bookmark IDs"},
		},
		Action: func(c *cli.Context) error {
			result, err := a.Analyze.Execute(c.Context, parseIDs(c.String("ids")))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, result)
		},
	}
}

func notionCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "notion",
		Usage:     "Push one bookmark to the configured Notion database",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}
			pageID, err := a.Notion.Execute(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"pageId": pageID})
		},
	}
}

func captureCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Open the bookmarks page in Chrome and store what it loads (needs X_AUTH_COOKIE)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Page to open (default the bookmarks page)"},
			&cli.IntFlag{Name: "scrolls", Aliases: []string{"s"}, Usage: "Times to scroll for more bookmarks (0 for default)"},
		},
		Action: func(c *cli.Context) error {
			if a.Config.XAuthCookie == "" {
				return outputError(fmt.Errorf("%w: X_AUTH_COOKIE is not set", domain.ErrCaptureFailed))
			}
			if err := a.EnableBrowser(); err != nil {
				return outputError(err)
			}
			result, err := a.Capture.Execute(c.Context, domain.CaptureOptions{
				URL:     c.String("url"),
				Scrolls: c.Int("scrolls"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, result)
		},
	}
}

// readBodies reads each file argument, or stdin when there are none or the
// argument is "-".
func readBodies(c *cli.Context) ([][]byte, error) {
	if c.NArg() == 0 {
		if !stdinHasData() {
			return nil, fmt.Errorf("%w: pass payload files or pipe one via stdin", domain.ErrInvalidPayload)
		}
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return [][]byte{body}, nil
	}

	bodies := make([][]byte, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		if path == "-" {
			body, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			bodies = append(bodies, body)
			continue
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

func requireID(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", errors.New("bookmark ID is required")
	}
	return id, nil
}

// outputJSON writes v as indented JSON to the app writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return cli.Exit(fmt.Sprintf("failed to encode output: %v", err), 1)
	}
	return nil
}

// outputError formats err for the CLI. Missing records exit with 2.
func outputError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return cli.Exit(err.Error(), 2)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// parseIDs splits a comma-separated ID list.
func parseIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
