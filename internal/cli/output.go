package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/andywolf/pluginkit/internal/engine"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/verify"
)

func printSummary(out io.Writer, res *engine.Result, dryRun bool) {
	if dryRun {
		fmt.Fprintln(out, "Dry run: nothing was written.")
	}
	fmt.Fprintf(out, "Install order: %s\n", strings.Join(res.Order, " -> "))
	if len(res.Composed) > len(res.Order) {
		fmt.Fprintf(out, "Configuration composed from: %s\n", strings.Join(res.Composed, ", "))
	}

	counts := make(map[report.Kind]int)
	for _, e := range res.Events {
		counts[e.Kind]++
	}
	fmt.Fprintf(out, "Files: %d created, %d overwritten, %d skipped\n",
		counts[report.KindFileCreate], counts[report.KindFileOverwrite], counts[report.KindFileSkip])
	if res.Rules != nil {
		fmt.Fprintf(out, "Skill rules: %d\n", len(res.Rules.Skills))
	}

	if warnings := res.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	if res.Verification != nil {
		fmt.Fprintln(out)
		printReport(out, *res.Verification)
	}
}

func printReport(out io.Writer, rep verify.Report) {
	if rep.Valid {
		fmt.Fprintln(out, "Verification: passed")
	} else {
		fmt.Fprintln(out, "Verification: failed")
	}
	for _, e := range rep.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
}
