package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/waftester/apiprobe/pkg/cli"
	"github.com/waftester/apiprobe/pkg/config"
	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/writers"
	"github.com/waftester/apiprobe/pkg/scanner"
	"github.com/waftester/apiprobe/pkg/store"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/ui"
)

// scanFlags are the scan-only flags; shared settings come from config.
type scanFlags struct {
	URL         string
	Protocol    string
	Method      string
	Headers     headerSlice
	Params      paramSlice
	Body        string
	Tests       string
	TargetFile  string
	Owner       string
	Format      string
	Output      string
	Template    string
	ShowPayload bool
	Silent      bool
	NoColor     bool
}

func (sf *scanFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&sf.URL, "u", "", "Target URL")
	fs.StringVar(&sf.URL, "url", "", "Target URL")
	fs.StringVar(&sf.Protocol, "protocol", "", "API type: REST, SOAP or GraphQL (default REST)")
	fs.StringVar(&sf.Method, "method", "", "HTTP method (default GET for REST, POST otherwise)")
	fs.StringVar(&sf.Method, "X", "", "HTTP method (alias)")
	fs.Var(&sf.Headers, "H", "Request header \"Name: value\" (repeatable)")
	fs.Var(&sf.Params, "p", "Query parameter key=value (repeatable, first is the SQLi injection point)")
	fs.StringVar(&sf.Body, "body", "", "Request body, or @file to read it from a file")
	fs.StringVar(&sf.Tests, "tests", "", "Comma-separated tests to run (default per protocol)")
	fs.StringVar(&sf.TargetFile, "target", "", "YAML target file")
	fs.StringVar(&sf.Owner, "owner", "", "Owner recorded with stored results")
	fs.StringVar(&sf.Format, "format", "table", "Output format: table, json, "+strings.Join(writers.BuiltInTemplates(), ", "))
	fs.StringVar(&sf.Output, "o", "", "Write the report to a file instead of stdout")
	fs.StringVar(&sf.Template, "template", "", "Render the report through a custom Go template file")
	fs.BoolVar(&sf.ShowPayload, "show-payload", false, "Show triggering payloads")
	fs.BoolVar(&sf.Silent, "silent", false, "Suppress banner and live results")
	fs.BoolVar(&sf.NoColor, "no-color", false, "Disable colored output")
}

func runScan(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf scanFlags
	sf.register(fs)

	cfg, err := config.FromArgs(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}

	ui.SetSilent(sf.Silent)
	ui.SetNoColor(sf.NoColor || !ui.IsTerminal(stderr))

	set := visited(fs)
	t, err := sf.buildTarget(set, cfg)
	if err != nil {
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}

	logger, logCloser, err := cli.NewLogger(cfg.Log, stderr)
	if err != nil {
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}
	defer logCloser.Close()

	ui.PrintBanner(stderr)
	ui.PrintTarget(stderr, t, t.Tests)

	eventLog := sf.Silent || cfg.Log.File != "" || cfg.Log.Format == "json"
	d, err := cli.NewDispatcher(cfg, logger, eventLog)
	if err != nil {
		errorf(stderr, "%v", err)
		return defaults.ExitInternalError
	}
	d.RegisterHook(ui.NewConsoleHook(stderr, ui.NewResultFormatter(sf.ShowPayload, ui.UnicodeTerminal(), ui.TerminalWidth(stderr, 100))))

	out := io.WriteCloser(nopWriteCloser{stdout})
	if sf.Output != "" {
		f, err := os.Create(sf.Output)
		if err != nil {
			_ = d.Close()
			errorf(stderr, "cannot create output file: %v", err)
			return defaults.ExitUserError
		}
		out = f
		defer out.Close()
	}
	rf := ui.NewResultFormatter(sf.ShowPayload, ui.UnicodeTerminal(), ui.TerminalWidth(stdout, 120))
	if err := registerReportWriter(d, sf, out); err != nil {
		_ = d.Close()
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}

	sink, err := openStore(cfg, logger)
	if err != nil {
		_ = d.Close()
		errorf(stderr, "cannot open result store: %v", err)
		return defaults.ExitStoreError
	}
	if sink != nil {
		defer sink.Close()
	}

	sc, err := cli.NewScanner(cfg, logger, scanner.WithEvents(d))
	if err != nil {
		_ = d.Close()
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}

	ctx, cancel := cli.SignalContext(context.Background(), duration.SignalGrace, stderr)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, duration.ContextScan)
	defer cancelTimeout()

	var saver store.Sink
	if sink != nil {
		saver = sink
	}
	scan, storeErr := sc.RunAndStore(ctx, t, saver)

	if err := d.Close(); err != nil {
		errorf(stderr, "writing report: %v", err)
	}
	if sf.Format == "table" && sf.Template == "" {
		rf.RenderTable(out, scan.Outcome)
	}

	switch {
	case storeErr != nil:
		errorf(stderr, "%v", storeErr)
		return defaults.ExitStoreError
	case scan.Cancelled:
		return defaults.ExitInterrupted
	case scan.Outcome.VulnerableCount() > 0:
		return defaults.ExitVulnerable
	default:
		return defaults.ExitSuccess
	}
}

// buildTarget loads -target if given, then applies any explicitly set
// flags on top.
func (sf *scanFlags) buildTarget(set map[string]bool, cfg *config.Config) (*target.Target, error) {
	var t *target.Target
	if sf.TargetFile != "" {
		loaded, err := target.Load(sf.TargetFile)
		if err != nil {
			return nil, err
		}
		t = loaded
		if set["protocol"] {
			t.Protocol = target.ParseProtocol(sf.Protocol)
		}
		if set["u"] || set["url"] {
			t.URL = sf.URL
		}
	} else {
		if sf.URL == "" {
			return nil, errors.New("target URL required (-u or -target)")
		}
		proto := sf.Protocol
		if proto == "" {
			proto = string(target.REST)
		}
		t = target.New(target.ParseProtocol(proto), sf.URL)
		if len(cfg.Scan.Tests) > 0 {
			t.Tests = append([]string(nil), cfg.Scan.Tests...)
		}
	}

	if sf.Method != "" {
		t.Method = strings.ToUpper(sf.Method)
	}
	headers, err := sf.Headers.Map()
	if err != nil {
		return nil, err
	}
	if len(headers) > 0 && t.Headers == nil {
		t.Headers = make(map[string]string, len(headers))
	}
	for k, v := range headers {
		t.Headers[k] = v
	}
	params, err := sf.Params.Params()
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		t.Params = t.Params.With(p.Key, p.Value)
	}
	if sf.Body != "" {
		body, err := parseBody(sf.Body, t.Protocol)
		if err != nil {
			return nil, err
		}
		t.Body = body
	}
	if sf.Tests != "" {
		t.Tests = splitList(sf.Tests)
	}
	if sf.Owner != "" {
		t.Owner = sf.Owner
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// parseBody reads @file bodies and decodes JSON for non-SOAP targets.
func parseBody(raw string, p target.Protocol) (target.Body, error) {
	data := []byte(raw)
	if path, ok := strings.CutPrefix(raw, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return target.Body{}, fmt.Errorf("reading body file: %w", err)
		}
		data = b
	}
	if p != target.SOAP && jsonutil.LooksLikeJSON(data) {
		var v any
		if err := jsonutil.Unmarshal(data, &v); err != nil {
			return target.Body{}, fmt.Errorf("invalid JSON body: %w", err)
		}
		return target.JSONBody(v), nil
	}
	return target.TextBody(string(data)), nil
}

func registerReportWriter(d *dispatcher.Dispatcher, sf scanFlags, out io.WriteCloser) error {
	switch {
	case sf.Template != "":
		w, err := writers.NewTemplateWriter(out, writers.TemplateConfig{TemplatePath: sf.Template})
		if err != nil {
			return err
		}
		d.RegisterWriter(w)
	case sf.Format == "table":
	case sf.Format == "json":
		d.RegisterWriter(writers.NewJSONWriter(out, writers.JSONOptions{Pretty: true}))
	default:
		w, err := writers.NewTemplateWriter(out, writers.TemplateConfig{BuiltIn: sf.Format})
		if err != nil {
			return fmt.Errorf("unknown format %q: %w", sf.Format, err)
		}
		d.RegisterWriter(w)
	}
	return nil
}

// openStore opens the configured result store. It returns nil when no
// store is configured.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Store.Kind == "" {
		return nil, nil
	}
	return store.Open(store.Config{
		Kind:   cfg.Store.Kind,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
		Logger: logger,
	})
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
