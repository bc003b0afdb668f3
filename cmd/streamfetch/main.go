package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/app"
	"github.com/rodrigopv/streamfetch/internal/config"
	"github.com/rodrigopv/streamfetch/internal/diag"
	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
	"github.com/rodrigopv/streamfetch/internal/mcpserver"
	"github.com/rodrigopv/streamfetch/internal/scanner"
)

// Build information, initialized to defaults and potentially overridden by ldflags.
var (
	version = "development"
	commit  = "n/a"
	date    = "n/a"
)

// printBanner writes to stderr so that `open` can stream to stdout.
func printBanner() {
	out := color.Error
	lineColor := color.New(color.FgYellow)
	nameColor := color.New(color.FgWhite, color.Bold)
	urlColor := color.New(color.FgCyan)
	metaColor := color.New(color.FgWhite)
	width := 64
	border := "+" + strings.Repeat("-", width) + "+"

	centered := func(text string, c *color.Color) {
		left := (width - len(text)) / 2
		lineColor.Fprint(out, "|")
		fmt.Fprint(out, strings.Repeat(" ", left))
		c.Fprint(out, text)
		fmt.Fprint(out, strings.Repeat(" ", width-len(text)-left))
		lineColor.Fprintln(out, "|")
	}

	lineColor.Fprintln(out, border)
	centered("streamfetch", nameColor)
	centered("github.com/rodrigopv/streamfetch", urlColor)
	lineColor.Fprintln(out, border)

	buildInfo := fmt.Sprintf("Version: %s | Commit: %s | Date: %s", version, commit, date)
	fmt.Fprintf(out, "%s\n\n", metaColor.Sprint(buildInfo))
}

// loadConfig reads --config when given and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("fast-path") {
		cfg.FastPath = c.Bool("fast-path")
	}
	if c.IsSet("contacts") {
		cfg.Contacts.Directory = c.String("contacts")
	}
	if c.IsSet("media-root") {
		cfg.Media.Root = c.String("media-root")
	}
	if c.IsSet("file-root") {
		cfg.FileRoot = c.String("file-root")
	}
	if c.Bool("no-http") {
		cfg.HTTP.Disabled = true
	}
	return cfg, cfg.Validate()
}

// setup builds the logger and the wired application for a command.
func setup(c *cli.Context) (*app.App, *zap.SugaredLogger, error) {
	log, err := diag.NewLogger(c.Bool("debug"))
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("Error creating logger: %v", err), 1)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}
	a, err := app.Build(cfg, log)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("Error setting up providers: %v", err), 1)
	}
	caps := a.Fetcher.Capabilities()
	log.Debugf("fast path requested=%t provider=%t available=%t",
		caps.FastPathRequested, caps.FastPathProvider, caps.FastPathAvailable)
	return a, log, nil
}

// exitCode maps fetch failures to distinct exit statuses.
func exitCode(err error) int {
	if errors.Is(err, fetch.ErrNotFound) {
		return 2
	}
	return 1
}

func requireOneArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		_ = cli.ShowSubcommandHelp(c)
		return "", cli.Exit("", 1)
	}
	return c.Args().Get(0), nil
}

func openAction(c *cli.Context) error {
	raw, err := requireOneArg(c)
	if err != nil {
		return err
	}
	a, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	loc, err := locator.Parse(raw)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	stream, err := a.Fetcher.Open(c.Context, loc)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error opening %s: %v", raw, err), exitCode(err))
	}
	defer a.Fetcher.Close(stream) //nolint:errcheck

	var out io.Writer = os.Stdout
	if outputFile := c.String("output"); outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error creating output file: %v", err), 1)
		}
		defer f.Close()
		out = f
	}

	n, err := io.Copy(out, stream)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error reading %s: %v", raw, err), 1)
	}
	log.Infof("Copied %d bytes from %s (%s, %s)", n, raw, stream.Kind(), stream.Strategy())
	return nil
}

func inspectAction(c *cli.Context) error {
	raw, err := requireOneArg(c)
	if err != nil {
		return err
	}
	outputFormat := c.String("format")
	if outputFormat != "text" && outputFormat != "json" {
		return cli.Exit(fmt.Sprintf("Error: Invalid output format '%s'. Use 'text' or 'json'.", outputFormat), 1)
	}
	a, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	result, scanErr := scanner.NewScanner(a.Fetcher, log).ScanTarget(c.Context, raw)
	if result == nil {
		return cli.Exit(fmt.Sprintf("Error: %v", scanErr), 1)
	}

	if outputFile := c.String("output"); outputFile != "" {
		if err := scanner.WriteOutput(result, outputFile, outputFormat); err != nil {
			return cli.Exit(fmt.Sprintf("Error writing output file: %v", err), 1)
		}
		log.Infof("Results written to %s", outputFile)
	} else if err := scanner.PrintResults(result, outputFormat); err != nil {
		return cli.Exit(fmt.Sprintf("Error printing results: %v", err), 1)
	}

	if scanErr != nil {
		return cli.Exit("", exitCode(scanErr))
	}
	return nil
}

func classifyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		_ = cli.ShowSubcommandHelp(c)
		return cli.Exit("", 1)
	}
	a, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	label := color.New(color.FgYellow).SprintFunc()
	value := color.New(color.FgCyan).SprintFunc()
	for _, raw := range c.Args().Slice() {
		loc, err := locator.Parse(raw)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		kind, strategy := a.Fetcher.Plan(loc)
		fmt.Printf("%s %s %s\n", label(loc.String()), value(kind), strategy)
	}
	return nil
}

func serveAction(c *cli.Context) error {
	a, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	srv := mcpserver.NewMCPServer(c.String("host"), c.Int("port"), version, a.Fetcher, log.Named("mcp"))
	if err := srv.Start(); err != nil {
		return cli.Exit(fmt.Sprintf("MCP server error: %v", err), 1)
	}
	return nil
}

func main() {
	printBanner()

	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to `FILE`",
	}

	cliApp := &cli.App{
		Name:      "streamfetch",
		Usage:     "Classify locators and open the streams behind them.",
		UsageText: "streamfetch [global options] command [command options] <locator>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (YAML)",
				EnvVars: []string{"STREAMFETCH_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "fast-path",
				Value: true,
				Usage: "Use the media descriptor fast path when the host supports it",
			},
			&cli.StringFlag{
				Name:  "contacts",
				Usage: "HTML contact directory `FILE`",
			},
			&cli.StringFlag{
				Name:  "media-root",
				Usage: "Serve content://media locators from `DIR`",
			},
			&cli.StringFlag{
				Name:  "file-root",
				Usage: "Resolve relative locators against `DIR`",
			},
			&cli.BoolFlag{
				Name:  "no-http",
				Usage: "Disable the http and https provider",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "open",
				Usage:     "Copy the stream behind a locator to stdout or a file",
				ArgsUsage: "<locator>",
				Flags:     []cli.Flag{outputFlag},
				Action:    openAction,
			},
			{
				Name:      "inspect",
				Usage:     "Report kind, strategy, size, content type, and digest of a locator",
				ArgsUsage: "<locator>",
				Flags: []cli.Flag{
					outputFlag,
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format (`text` or `json`)",
					},
				},
				Action: inspectAction,
			},
			{
				Name:      "classify",
				Usage:     "Print the kind and strategy of each locator without opening it",
				ArgsUsage: "<locator>...",
				Action:    classifyAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the open_locator and classify_locator MCP tools over SSE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "Listen `HOST`"},
					&cli.IntFlag{Name: "port", Value: 8088, Usage: "Listen `PORT`"},
				},
				Action: serveAction,
			},
		},
	}

	cli.AppHelpTemplate = fmt.Sprintf(`%s
%s`, cli.AppHelpTemplate, `EXAMPLE:
   streamfetch open content://media/external/images/media/12 > out.jpg
   streamfetch --contacts contacts.html inspect -f json content://contacts/contacts/lookup/abc123
   streamfetch classify content://contacts/phone_lookup/5551234 https://example.com/a.png
   streamfetch --config streamfetch.yaml serve --port 8088
`)

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
