package cli

import (
	"fmt"
	"strings"

	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Inspect the industry benchmark corpus",
}

var benchmarkSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search benchmark profiles by role or industry",
	Long: `Search the benchmark index the same way scoring does and list the
matching profiles with their similarity to the query.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBenchmarkSearch,
}

var (
	benchmarkFlags commonFlags
	benchmarkTopK  int
)

func init() {
	benchmarkSearchCmd.Flags().IntVarP(&benchmarkTopK, "top-k", "k", 0, "Maximum number of profiles (default from config)")
	outputFlags(benchmarkSearchCmd, &benchmarkFlags)
	benchmarkCmd.AddCommand(benchmarkSearchCmd)
}

func runBenchmarkSearch(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	cmdConfig, err := benchmarkFlags.commandConfig(cmd)
	if err != nil {
		return err
	}
	if benchmarkTopK < 0 {
		return fmt.Errorf("--top-k must not be negative")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	retriever := a.Engine.Retriever()
	if retriever == nil {
		return fmt.Errorf("benchmark retrieval is disabled (benchmark.enabled=false)")
	}

	query := strings.Join(args, " ")
	results, err := retriever.Search(cmd.Context(), query, benchmarkTopK)
	if err != nil {
		return err
	}

	return common.NewOutputHandler(logger).HandleOutput(types.BenchmarkSearchOutput{Query: query, Results: results}, cmdConfig)
}
