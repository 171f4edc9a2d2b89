package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/scanner"
	"github.com/waftester/apiprobe/pkg/ui"
)

func runTests(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tests", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		return defaults.ExitUserError
	}

	reg := scanner.DefaultRegistry(probe.DefaultDeps())
	for _, p := range reg.Protocols() {
		fmt.Fprintf(stdout, "%s\n", ui.SectionStyle.Render(p.String()))
		fmt.Fprintf(stdout, "  available: %s\n", strings.Join(reg.Names(p), ", "))
		fmt.Fprintf(stdout, "  default:   %s\n", strings.Join(defaults.TestsFor(p.String()), ", "))
	}
	return defaults.ExitSuccess
}
