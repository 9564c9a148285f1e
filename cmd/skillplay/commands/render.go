package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/gate"
	"github.com/skillplay/skillplay-life/internal/domain/navigation"
)

// progressBarWidth is the number of cells in a challenge progress bar.
const progressBarWidth = 20

var (
	celebrate = color.New(color.FgYellow, color.Bold).SprintFunc()
	good      = color.New(color.FgGreen).SprintFunc()
	muted     = color.New(color.Faint).SprintFunc()
	heading   = color.New(color.Bold).SprintFunc()
)

func newTable(w io.Writer, title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	if title != "" {
		tbl.SetTitle(title)
	}
	return tbl
}

func points(n int) string {
	return humanize.Comma(int64(n))
}

func check(done bool) string {
	if done {
		return good("✓")
	}
	return muted("·")
}

func when(t time.Time) string {
	if t.IsZero() {
		return muted("never")
	}
	return humanize.Time(t)
}

func routeLabel(r gate.Route) string {
	if r == gate.RouteRemote {
		return color.CyanString(string(r))
	}
	return color.GreenString(string(r))
}

func screenLabel(s navigation.Screen) string {
	return heading(string(s))
}

func rarityLabel(r content.Rarity) string {
	switch r {
	case content.RarityLegendary:
		return color.New(color.FgYellow, color.Bold).Sprint(r)
	case content.RarityEpic:
		return color.MagentaString(string(r))
	case content.RarityRare:
		return color.BlueString(string(r))
	}
	return string(r)
}

func progressBar(fraction float64) string {
	filled := int(fraction*progressBarWidth + 0.5)
	filled = min(max(filled, 0), progressBarWidth)
	return good(strings.Repeat("█", filled)) + muted(strings.Repeat("░", progressBarWidth-filled))
}

func awardLine(w io.Writer, title string, awarded bool, pts, total int) {
	if awarded {
		fmt.Fprintf(w, "%s %s  %s  (total %s)\n", good("+"+points(pts)), title, muted("points"), points(total))
		return
	}
	fmt.Fprintf(w, "%s %s  (total %s)\n", muted("already done:"), title, points(total))
}
