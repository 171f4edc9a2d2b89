package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/ui"
)

type payloadRow struct {
	Protocol target.Protocol  `json:"protocol"`
	Class    payloads.Class   `json:"class"`
	Payload  payloads.Payload `json:"payload"`
}

func runPayloads(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("payloads", flag.ContinueOnError)
	fs.SetOutput(stderr)
	protocol := fs.String("protocol", "", "Only list payloads for this protocol")
	class := fs.String("class", "", "Only list this class: sql, xss, ssrf, graphql")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		return defaults.ExitUserError
	}

	protocols := target.Protocols
	if *protocol != "" {
		p := target.ParseProtocol(*protocol)
		if !p.Supported() {
			errorf(stderr, "unsupported protocol %q", *protocol)
			return defaults.ExitUserError
		}
		protocols = []target.Protocol{p}
	}

	cat := payloads.Default()
	var rows []payloadRow
	for _, p := range protocols {
		for _, cl := range cat.Classes(p) {
			if *class != "" && string(cl) != *class {
				continue
			}
			for _, pl := range cat.Payloads(cl, p) {
				rows = append(rows, payloadRow{Protocol: p, Class: cl, Payload: pl})
			}
		}
	}

	if *asJSON {
		data, err := jsonutil.MarshalIndent(rows)
		if err != nil {
			errorf(stderr, "%v", err)
			return defaults.ExitInternalError
		}
		fmt.Fprintln(stdout, string(data))
		return defaults.ExitSuccess
	}

	unicode := ui.UnicodeTerminal()
	for _, r := range rows {
		label := r.Payload.Name
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(stdout, "%-8s %-8s %-14s %s\n", r.Protocol, r.Class, label, ui.Truncate(ui.Sanitize(r.Payload.Value, unicode), 90))
	}
	return defaults.ExitSuccess
}
