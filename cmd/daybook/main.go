package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/daybook/internal"
	"github.com/starford/daybook/internal/console"
	"github.com/starford/daybook/internal/publish"
	pkgconfig "github.com/starford/daybook/pkg/config"
)

var version = "dev"

const defaultConfigPath = "config/daybook.yaml"

var (
	errLintFindings  = errors.New("internal links found")
	errPublishFailed = errors.New("every destination failed")
)

// loadConfig reads the config file, overlays credentials from the
// environment and installs the logger. The default path is optional.
func loadConfig(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	load := pkgconfig.Load[internal.Config]
	if !cmd.IsSet("config") {
		load = pkgconfig.LoadIfExists[internal.Config]
	}
	if err := load(path, cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, internal.NewLogger(cfg.App), nil
}

// services builds the publish stack. assist turns the assistant on
// regardless of the config file.
func services(cmd *cli.Command, assist bool) (*internal.Services, *console.Printer, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if assist {
		cfg.Assist.Enabled = true
	}
	out := console.New(os.Stdout)
	svc, err := internal.NewServices(cfg, logger, out)
	if err != nil {
		return nil, nil, err
	}
	return svc, out, nil
}

func fileArg(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" {
		return "", fmt.Errorf("%s: entry file is required", cmd.Name)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return path, nil
}

func runPublish(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	targets, err := publish.ParseDestinations(cmd.StringSlice("to"))
	if err != nil {
		return err
	}
	svc, _, err := services(cmd, cmd.Bool("assist"))
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.Publish.Publish(ctx, path, publish.Options{
		Targets: targets,
		DryRun:  cmd.Bool("dry-run"),
		Canvas:  cmd.Bool("canvas"),
		Draft:   cmd.Bool("draft"),
		Assist:  cmd.Bool("assist"),
	})
	if err != nil {
		return err
	}

	if report.Failed() {
		return fmt.Errorf("publish: %s: %w", report.Subject, errPublishFailed)
	}
	return nil
}

func runInfo(_ context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	svc, out, err := services(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	e, err := svc.Publish.Info(path)
	if err != nil {
		return err
	}
	out.Println(out.Bold(e.Subject()))
	out.Println("format:", e.Format)
	out.Println("date:", e.DateString())
	for _, k := range e.Metadata.Ordered() {
		v := e.Metadata.String(k)
		if v == "" {
			raw, _ := e.Metadata.Get(k)
			v = fmt.Sprint(raw)
		}
		out.Println(k+":", v)
	}
	if refs := svc.Resolver.InternalReferences(e.Body); len(refs) > 0 {
		out.Warning("%d internal links in body", len(refs))
	}
	return nil
}

func runLinks(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	svc, out, err := services(cmd, cmd.Bool("assist"))
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.Publish.Links(ctx, path, publish.LinkOptions{
		Write:  cmd.Bool("write"),
		Assist: cmd.Bool("assist"),
	})
	if err != nil {
		return err
	}
	switch {
	case report.Changed && !report.Saved:
		out.Println(report.Body)
	case !report.Changed:
		out.Info("No links to rewrite")
	}
	if report.Grammar != "" {
		out.Println(report.Grammar)
	}
	return nil
}

func runLint(_ context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("lint: at least one file is required")
	}
	svc, out, err := services(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	findings, err := svc.Publish.Lint(paths)
	if err != nil {
		return err
	}
	for _, f := range findings {
		out.Error("%s:%d: internal URL %s", f.Path, f.Line, f.URL)
	}
	if len(findings) > 0 {
		return fmt.Errorf("lint: %d %w", len(findings), errLintFindings)
	}
	return nil
}

func runGrammar(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	svc, out, err := services(cmd, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	out.Processing("Checking grammar...")
	text, err := svc.Publish.Grammar(ctx, path)
	if err != nil {
		return err
	}
	out.Println(strings.TrimSpace(text))
	return nil
}

func runCacheList(ctx context.Context, cmd *cli.Command) error {
	svc, out, err := services(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	redirects, err := svc.Redirects(ctx)
	if err != nil {
		return err
	}
	if len(redirects) == 0 {
		out.Info("Link cache is empty")
		return nil
	}
	for _, r := range redirects {
		out.Println(r.PageID, r.Target, r.UpdatedAt.Format(time.DateOnly))
	}
	return nil
}

func runCacheForget(ctx context.Context, cmd *cli.Command) error {
	refs := cmd.Args().Slice()
	if len(refs) == 0 {
		return fmt.Errorf("forget: a page URL or ID is required")
	}
	svc, out, err := services(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, ref := range refs {
		id, err := svc.ForgetRedirect(ctx, ref)
		if err != nil {
			return err
		}
		out.Success("Forgot %s", id)
	}
	return nil
}

// serverOptions loads the config and applies the server flag overrides.
func serverOptions(cmd *cli.Command) ([]internal.Option, func(), error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if dir := cmd.String("entries"); dir != "" {
		cfg.Server.EntriesDir = dir
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Server.Port = int(port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	svc, err := internal.NewServices(cfg, logger, console.New(nil))
	if err != nil {
		return nil, nil, err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithLogger(logger),
		internal.WithServices(svc),
		internal.WithVersion(version),
	}
	return opts, func() { _ = svc.Close() }, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, closeFn, err := serverOptions(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, closeFn, err := serverOptions(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	return internal.ServeMCP(ctx, opts...)
}

func entriesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "entries",
		Aliases: []string{"d"},
		Usage:   "Entries directory (overrides server.entries_dir)",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "daybook",
		Usage:   "Publish daily journal entries to Notion, Buttondown and Slack",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("DAYBOOK_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "publish",
				Usage:     "Publish an entry to the selected destinations",
				ArgsUsage: "FILE",
				Action:    runPublish,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "to",
						Usage: "Destination: notion, buttondown or slack (repeatable, default all)",
					},
					&cli.BoolFlag{Name: "dry-run", Usage: "Show what would happen without calling any API or writing the file"},
					&cli.BoolFlag{Name: "canvas", Usage: "Post to Slack as a channel canvas"},
					&cli.BoolFlag{Name: "draft", Usage: "Only save the Buttondown draft"},
					&cli.BoolFlag{Name: "assist", Usage: "Ask the llm command for missing link targets"},
				},
			},
			{
				Name:      "info",
				Usage:     "Show the parsed header of an entry",
				ArgsUsage: "FILE",
				Action:    runInfo,
			},
			{
				Name:      "links",
				Usage:     "Rewrite internal links to their public targets",
				ArgsUsage: "FILE",
				Action:    runLinks,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Save the rewritten body"},
					&cli.BoolFlag{Name: "assist", Usage: "Suggest targets for missing links, or check grammar when none are missing"},
				},
			},
			{
				Name:      "lint",
				Usage:     "Fail when entry bodies still contain internal URLs",
				ArgsUsage: "FILE...",
				Action:    runLint,
			},
			{
				Name:      "grammar",
				Usage:     "Run the grammar check over an entry",
				ArgsUsage: "FILE",
				Action:    runGrammar,
			},
			{
				Name:  "cache",
				Usage: "Inspect the link redirect cache",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List cached redirects",
						Action: runCacheList,
					},
					{
						Name:      "forget",
						Usage:     "Drop cached redirects so they are looked up again",
						ArgsUsage: "PAGE...",
						Action:    runCacheForget,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the preview server",
				Action: runServe,
				Flags: []cli.Flag{
					entriesFlag(),
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP port (overrides server.port)"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: runMCP,
				Flags:  []cli.Flag{entriesFlag()},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
