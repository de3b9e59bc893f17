package cli

import (
	"fmt"
	"io"

	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/verify"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check an installed .claude directory",
	Long: `Check that the project's .claude directory holds the essential files,
that hook scripts are executable and that hook dependencies are installed.

Nothing is modified. Exits non-zero when an essential file is missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return verifyProject(cmd.OutOrStdout(), cfg.Project.Root, report.NewZapSink(logger))
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyProject(out io.Writer, root string, sink report.Sink) error {
	rep := verify.Verify(root)
	rep.Emit(sink)
	printReport(out, rep)
	if !rep.Valid {
		return fmt.Errorf("verification failed with %d error(s)", len(rep.Errors))
	}
	return nil
}
