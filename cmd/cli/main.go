// Command apiprobe runs confidence-scored vulnerability probes against
// REST, SOAP and GraphQL endpoints.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/ui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return defaults.ExitUserError
	}

	switch args[0] {
	case "scan":
		return runScan(args[1:], stdout, stderr)
	case "summary", "stats":
		return runSummary(args[1:], stdout, stderr)
	case "payloads":
		return runPayloads(args[1:], stdout, stderr)
	case "tests", "list":
		return runTests(args[1:], stdout, stderr)
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "%s %s\n", defaults.ToolName, defaults.Version)
		return defaults.ExitSuccess
	case "-h", "--help", "help":
		printUsage(stdout)
		return defaults.ExitSuccess
	default:
		errorf(stderr, "unknown command: %s", args[0])
		printUsage(stderr)
		return defaults.ExitUserError
	}
}

func printUsage(w io.Writer) {
	ui.PrintBanner(w)

	fmt.Fprintln(w, ui.SectionStyle.Render("COMMANDS"))
	fmt.Fprintln(w)
	cmd := func(name, desc string) {
		fmt.Fprintf(w, "  %s  %s\n", ui.StatValueStyle.Render(fmt.Sprintf("%-9s", name)), desc)
	}
	cmd("scan", "Run probes against one API target")
	cmd("summary", "Aggregate stored results (risk levels, categories, timeline)")
	cmd("payloads", "List the payload catalog")
	cmd("tests", "List available tests per protocol")
	cmd("version", "Print version")
	fmt.Fprintln(w)

	fmt.Fprintln(w, ui.SectionStyle.Render("EXAMPLES"))
	fmt.Fprintln(w)
	ex := func(s string) { fmt.Fprintf(w, "    %s\n", ui.ConfigValueStyle.Render(s)) }
	ex("apiprobe scan -u https://api.example.com/users -p id=1")
	ex("apiprobe scan -protocol graphql -u https://api.example.com/graphql -format json -o report.json")
	ex("apiprobe scan -target target.yaml -store sqlite -store-path results.db")
	ex("apiprobe summary -store sqlite -store-path results.db")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", ui.SubtitleStyle.Render("Run 'apiprobe <command> -h' for command flags."))
}
