package cli

import (
	"atscore/internal/common"

	"github.com/spf13/cobra"
)

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize TERM...",
	Short: "Show the canonical form of skill terms",
	Example: `  atscore canonicalize K8s "Python Programming" js
  atscore canonicalize --format json "Amazon Web Services"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCanonicalize,
}

var canonicalizeFlags commonFlags

func init() {
	outputFlags(canonicalizeCmd, &canonicalizeFlags)
}

func runCanonicalize(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	cmdConfig, err := canonicalizeFlags.commandConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	return common.NewOutputHandler(logger).HandleOutput(a.Engine.Canonicalize(args), cmdConfig)
}
