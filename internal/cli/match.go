package cli

import (
	"atscore/internal/common"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match --required a,b --resume-skills x,y",
	Short: "Match resume skills against job requirements",
	Long: `Match resume skills against required and preferred job skills without
scoring. Each requirement is reported with the resume skill that satisfied it
and how: exact, alias, fuzzy or semantic.`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

var (
	matchFlags     commonFlags
	matchRequired  []string
	matchPreferred []string
	matchResume    []string
)

func init() {
	matchCmd.Flags().StringSliceVar(&matchRequired, "required", nil, "Required skills (comma separated or repeated)")
	matchCmd.Flags().StringSliceVar(&matchPreferred, "preferred", nil, "Preferred skills")
	matchCmd.Flags().StringSliceVar(&matchResume, "resume-skills", nil, "Skills listed on the resume")
	_ = matchCmd.MarkFlagRequired("required")
	outputFlags(matchCmd, &matchFlags)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	logger := getLoggerFromContext(cmd.Context())

	cmdConfig, err := matchFlags.commandConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	report := a.Engine.Match(cmd.Context(),
		common.ParseTermList(matchRequired),
		common.ParseTermList(matchPreferred),
		common.ParseTermList(matchResume))

	return common.NewOutputHandler(logger).HandleOutput(report, cmdConfig)
}
