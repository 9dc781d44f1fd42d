package cli

import (
	"context"
	"fmt"

	"atscore/internal/common"
	"atscore/internal/schemas"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score --resume resume.json --job job.json",
	Short: "Score a resume against a job description",
	Long: `Score a structured resume (JSON) against a structured job description
(JSON). Both files are validated against their JSON Schema first.

The report contains the overall score with a confidence interval, per-dimension
scores with evidence, skill matches, ranked recommendations and, when a
benchmark profile was found, how the score compares with the industry.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

var (
	scoreFlags      commonFlags
	scoreResumeFile string
	scoreJobFile    string
)

type scoreInput struct {
	resume *types.StructuredResume
	job    *types.StructuredJobDescription
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreResumeFile, "resume", "r", "", "Structured resume JSON file")
	scoreCmd.Flags().StringVarP(&scoreJobFile, "job", "j", "", "Structured job description JSON file")
	_ = scoreCmd.MarkFlagRequired("resume")
	_ = scoreCmd.MarkFlagRequired("job")
	outputFlags(scoreCmd, &scoreFlags)
}

func runScore(cmd *cobra.Command, _ []string) error {
	logger := getLoggerFromContext(cmd.Context())

	cmdConfig, err := scoreFlags.commandConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	decode := func(contents [][]byte) (scoreInput, error) {
		if len(contents) != 2 {
			return scoreInput{}, fmt.Errorf("expected 2 files, got %d", len(contents))
		}
		resume, err := schemas.DecodeResume(contents[0])
		if err != nil {
			return scoreInput{}, err
		}
		job, err := schemas.DecodeJob(contents[1])
		if err != nil {
			return scoreInput{}, err
		}
		return scoreInput{resume: resume, job: job}, nil
	}

	logDetails := func(input scoreInput, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"resume_skills", len(input.resume.Skills),
			"required_skills", len(input.job.RequiredSkills),
			"role", input.job.BenchmarkKey(),
			"output_format", cfg.OutputFormat)
	}

	operation := func(ctx context.Context, input scoreInput) (*types.ScoreReport, error) {
		return a.Engine.Score(ctx, input.resume, input.job)
	}

	if err := common.RunCommand(cmd.Context(), logger, cmdConfig,
		[]string{scoreResumeFile, scoreJobFile}, decode, operation, logDetails); err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
