package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gothamlabs/gothambuild/internal/revision"
)

var tagOutputFlag string

// NewTagCmd creates the tag command.
func NewTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Print the derived version tag",
		Long: `Print the version tag a release would use.

The tag is the first 7 characters of the resolved source revision
(CODEBUILD_RESOLVED_SOURCE_VERSION, overridable with
GOTHAM_SOURCE_VERSION), or "latest" when no revision is available.

Examples:
  # Print the tag
  gothambuild tag

  # Print tag plus revision detail as JSON
  gothambuild tag -o json`,
		RunE: runTag,
	}

	cmd.Flags().StringVarP(&tagOutputFlag, "output", "o", "plain",
		"Output format: plain, json")

	return cmd
}

func runTag(cmd *cobra.Command, args []string) error {
	rev := revision.Resolve()

	switch tagOutputFlag {
	case "plain":
		fmt.Fprintln(cmd.OutOrStdout(), rev.Tag())
		return nil
	case "json":
		out := struct {
			Tag           string `json:"tag"`
			SourceVersion string `json:"sourceVersion,omitempty"`
			BuildID       string `json:"buildId,omitempty"`
		}{
			Tag:           rev.Tag(),
			SourceVersion: rev.SourceVersion,
			BuildID:       rev.BuildID,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return NewExitError(fmt.Errorf("unknown output format %q", tagOutputFlag), ExitGeneralError)
	}
}
