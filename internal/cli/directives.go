package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/directive"
)

// DirectivesResult describes the parsed header of one test file.
type DirectivesResult struct {
	Path          string            `json:"path"`
	Directives    map[string]string `json:"directives"`
	Unknown       []string          `json:"unknown,omitempty"`
	Skip          bool              `json:"skip"`
	SkipReason    string            `json:"skip_reason,omitempty"`
	ExpectFailure bool              `json:"expect_failure"`
}

// NewDirectivesCommand creates the directives command.
func NewDirectivesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directives <file>",
		Short: "Show the directives parsed from a test file",
		Long: `Parse the comment header of a test file and print its directives
together with the skip decision, without running the subject.

Keys outside the known vocabulary are listed as unknown; they are kept but
never acted on.

Example:
  verdict directives tests/int.millie`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showDirectives(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func showDirectives(cmd *cobra.Command, opts *RootOptions, path string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	spec, err := directive.Read(path)
	if err != nil {
		return out.Fail(ExitCommandError, CodeDirective, "failed to read directives", err)
	}

	skip, reason := spec.Skip()
	result := DirectivesResult{
		Path:          path,
		Directives:    spec,
		Unknown:       spec.Unknown(),
		Skip:          skip,
		SkipReason:    reason,
		ExpectFailure: spec.ExpectsFailure(),
	}

	return out.Success(result, func(w io.Writer) error {
		return writeDirectivesText(w, result, spec)
	})
}

func writeDirectivesText(w io.Writer, r DirectivesResult, spec directive.Spec) error {
	fmt.Fprintf(w, "%s\n", r.Path)
	if len(spec) == 0 {
		fmt.Fprintln(w, "  (no directives)")
	}
	for _, k := range spec.Keys() {
		marker := ""
		if !directive.IsKnown(k) {
			marker = " (unknown)"
		}
		fmt.Fprintf(w, "  %s: %s%s\n", k, spec[k], marker)
	}

	switch {
	case r.Skip:
		fmt.Fprintf(w, "skip: yes (%s)\n", r.SkipReason)
	default:
		fmt.Fprintln(w, "skip: no")
	}
	_, err := fmt.Fprintf(w, "expect failure: %t\n", r.ExpectFailure)
	return err
}
