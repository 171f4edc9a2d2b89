package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/target"
)

var (
	silentMode bool
	uiMu       sync.RWMutex
)

// SetSilent suppresses the banner and live result lines.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output for every style.
func SetNoColor(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

const bannerArt = `
   __ _ _ __ (_)_ __  _ __ ___ | |__   ___
  / _' | '_ \| | '_ \| '__/ _ \| '_ \ / _ \
 | (_| | |_) | | |_) | | | (_) | |_) |  __/
  \__,_| .__/|_| .__/|_|  \___/|_.__/ \___|
       |_|     |_|`

// PrintBanner writes the tool banner.
func PrintBanner(w io.Writer) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(w, BannerStyle.Render(bannerArt))
	fmt.Fprintf(w, "  %s %s\n\n",
		SubtitleStyle.Render("confidence-scored API vulnerability scanner"),
		VersionStyle.Render("v"+defaults.Version))
}

// PrintTarget writes the scan configuration block.
func PrintTarget(w io.Writer, t *target.Target, tests []string) {
	if IsSilent() || t == nil {
		return
	}
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", ConfigLabelStyle.Render(label), ConfigValueStyle.Render(value))
	}
	row("Target", URLStyle.Render(t.URL))
	row("Protocol", t.Protocol.String())
	row("Method", t.Method)
	row("Tests", strings.Join(tests, ", "))
	fmt.Fprintln(w)
}
