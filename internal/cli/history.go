package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/report"
	"github.com/roach88/verdict/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Compare  string
	Limit    int
}

// CompareResult holds the status changes between two runs.
type CompareResult struct {
	Before  string         `json:"before"`
	After   string         `json:"after"`
	Changes []store.Change `json:"changes"`
}

// RunDetail holds one recorded run and its verdicts.
type RunDetail struct {
	Run      store.RunSummary      `json:"run"`
	Verdicts []store.VerdictRecord `json:"verdicts"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with 'verdict run --db'.

Without flags, lists the most recent runs with their verdict counts.
With --run, lists that run's verdicts in processing order.
With --run and --compare, lists the files whose status differs between the
--compare run (before) and the --run run (after).

Exit codes:
  0 - Success
  2 - Command error (database not found, unknown run, etc.)

Examples:
  verdict history --db .verdict.db
  verdict history --db .verdict.db --run 01928c3e-...
  verdict history --db .verdict.db --run NEW --compare OLD`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to the config db)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the verdicts of this run")
	cmd.Flags().StringVar(&opts.Compare, "compare", "", "compare --run against this earlier run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	ctx := cmdContext(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return out.Fail(ExitCommandError, CodeConfig, "invalid configuration", err)
		}
		dbPath = cfg.DB
	}
	if dbPath == "" {
		return out.Fail(ExitCommandError, CodeHistory, "no history database: set --db or db in the config file", nil)
	}
	if opts.Compare != "" && opts.RunID == "" {
		return out.Fail(ExitCommandError, CodeHistory, "--compare requires --run", nil)
	}
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return out.Fail(ExitCommandError, CodeHistory, "database not found", errors.New(dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return out.Fail(ExitCommandError, CodeHistory, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.Compare != "":
		changes, err := st.CompareRuns(ctx, opts.Compare, opts.RunID)
		if err != nil {
			return out.Fail(ExitCommandError, CodeHistory, "failed to compare runs", err)
		}
		result := CompareResult{Before: opts.Compare, After: opts.RunID, Changes: changes}
		return out.Success(result, func(w io.Writer) error {
			return writeChangesText(w, result)
		})

	case opts.RunID != "":
		run, err := st.GetRun(ctx, opts.RunID)
		if err != nil {
			return out.Fail(ExitCommandError, CodeHistory, "failed to load run", err)
		}
		records, err := st.RunVerdicts(ctx, opts.RunID)
		if err != nil {
			return out.Fail(ExitCommandError, CodeHistory, "failed to load verdicts", err)
		}
		detail := RunDetail{Run: run, Verdicts: records}
		return out.Success(detail, func(w io.Writer) error {
			return writeRunText(w, detail)
		})

	default:
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return out.Fail(ExitCommandError, CodeHistory, "failed to list runs", err)
		}
		return out.Success(runs, func(w io.Writer) error {
			return writeRunsText(w, runs)
		})
	}
}

func writeRunsText(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tOK\tFAIL\tSKIP\tERROR\tTOTAL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.OK, r.Fail, r.Skip, r.Error, r.Total())
	}
	return tw.Flush()
}

func writeRunText(w io.Writer, d RunDetail) error {
	fmt.Fprintf(w, "Run %s (%s, policy %s)\n", d.Run.ID, d.Run.StartedAt.Format(time.RFC3339), d.Run.Policy)
	fmt.Fprintf(w, "Subject %s, root %s\n\n", d.Run.Subject, d.Run.Root)
	for _, rec := range d.Verdicts {
		fmt.Fprintf(w, "[%-4s] %s (%sms)\n", rec.Status, rec.Path, report.FormatMillis(rec.Elapsed))
		if rec.Detail != "" && (rec.Status == harness.StatusFail || rec.Status == harness.StatusError) {
			fmt.Fprintf(w, "  %s\n", rec.Detail)
		}
	}
	_, err := fmt.Fprintf(w, "\nSummary: %d ok, %d fail, %d skip, %d error (%d total)\n",
		d.Run.OK, d.Run.Fail, d.Run.Skip, d.Run.Error, d.Run.Total())
	return err
}

func writeChangesText(w io.Writer, r CompareResult) error {
	if len(r.Changes) == 0 {
		_, err := fmt.Fprintf(w, "No status changes between %s and %s.\n", r.Before, r.After)
		return err
	}
	for _, c := range r.Changes {
		edited := ""
		if c.DigestChanged {
			edited = " (file changed)"
		}
		fmt.Fprintf(w, "%s: %s -> %s%s\n", c.Path, statusOrAbsent(c.Before), statusOrAbsent(c.After), edited)
	}
	_, err := fmt.Fprintf(w, "\n%d change(s)\n", len(r.Changes))
	return err
}

func statusOrAbsent(s harness.Status) string {
	if s == "" {
		return "absent"
	}
	return string(s)
}
