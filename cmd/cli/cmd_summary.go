package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/waftester/apiprobe/pkg/cli"
	"github.com/waftester/apiprobe/pkg/config"
	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/store"
	"github.com/waftester/apiprobe/pkg/ui"
)

func runSummary(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	owner := fs.String("owner", "", "Only count results recorded for this owner")
	format := fs.String("format", "table", "Output format: table or json")

	cfg, err := config.FromArgs(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}
	if cfg.Store.Kind == "" {
		errorf(stderr, "no result store configured (use -store and -store-path or -store-dsn)")
		return defaults.ExitUserError
	}
	if *format != "table" && *format != "json" {
		errorf(stderr, "unknown format %q", *format)
		return defaults.ExitUserError
	}

	logger, logCloser, err := cli.NewLogger(cfg.Log, stderr)
	if err != nil {
		errorf(stderr, "%v", err)
		return defaults.ExitUserError
	}
	defer logCloser.Close()

	st, err := openStore(cfg, logger)
	if err != nil {
		errorf(stderr, "cannot open result store: %v", err)
		return defaults.ExitStoreError
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), duration.StoreWrite)
	defer cancel()
	recs, err := st.Records(ctx, *owner)
	if err != nil {
		errorf(stderr, "reading results: %v", err)
		return defaults.ExitStoreError
	}
	sum := store.Summarize(recs)

	if *format == "json" {
		data, err := jsonutil.MarshalIndent(sum)
		if err != nil {
			errorf(stderr, "%v", err)
			return defaults.ExitInternalError
		}
		fmt.Fprintln(stdout, string(data))
		return defaults.ExitSuccess
	}
	printSummary(stdout, sum)
	return defaults.ExitSuccess
}

func printSummary(w io.Writer, s store.Summary) {
	fmt.Fprintln(w, ui.TitleStyle.Render("Stored Results"))
	stat := func(label string, v int) {
		fmt.Fprintf(w, "  %s %s\n", ui.StatLabelStyle.Render(fmt.Sprintf("%-16s", label)), ui.StatValueStyle.Render(fmt.Sprint(v)))
	}
	stat("Scans", s.Scans)
	stat("Tests", s.TotalTests)
	stat("Vulnerabilities", s.Vulnerabilities)

	fmt.Fprintln(w, ui.SectionStyle.Render("Risk levels"))
	stat("Critical", s.RiskLevels.Critical)
	stat("High", s.RiskLevels.High)
	stat("Medium", s.RiskLevels.Medium)
	stat("Low", s.RiskLevels.Low)

	if len(s.Categories) > 0 {
		fmt.Fprintln(w, ui.SectionStyle.Render("Categories"))
		names := make([]string, 0, len(s.Categories))
		for name := range s.Categories {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			stat(name, s.Categories[name])
		}
	}

	if len(s.Timeline) > 0 {
		fmt.Fprintln(w, ui.SectionStyle.Render("Timeline"))
		for _, m := range s.Timeline {
			stat(m.Month, m.Vulnerable)
		}
	}
}
