package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ppiankov/clauseguard/internal/auditlog"
	"github.com/spf13/cobra"
)

var logLimit int

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the local action log",
	Long: `Show what clauseguard has done on this machine: contracts analyzed and
reports written. The log lives at audit.file (default ~/.clauseguard/audit_log.json).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := auditlog.New(appConfig.Audit.File).List()
		if err != nil {
			return err
		}
		return printEntries(os.Stdout, entries, logLimit)
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "show only the most recent N entries (0 for all)")
}

// printEntries prints the newest limit entries, oldest first
func printEntries(w io.Writer, entries []auditlog.Entry, limit int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No actions recorded.")
		return err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tSOURCE\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Source, e.Detail)
	}
	return tw.Flush()
}
