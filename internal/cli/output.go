package cli

import (
	"atscore/internal/common"

	"github.com/spf13/cobra"
)

// commonFlags holds the --output and --format values of one command
type commonFlags struct {
	OutputFile   string
	OutputFormat string
}

// commandConfig resolves the output settings against the loaded config
func (cf commonFlags) commandConfig(cmd *cobra.Command) (common.CommandConfig, error) {
	cfg := getConfigFromContext(cmd.Context())

	format := cf.OutputFormat
	if format == "" {
		format = cfg.App.DefaultFormat
	}
	if format == "" {
		format = "json"
	}
	if err := common.ValidateOutputFormat(format, cfg.App.SupportedFormats); err != nil {
		return common.CommandConfig{}, err
	}

	return common.CommandConfig{
		OutputFile:   cf.OutputFile,
		OutputFormat: format,
		MaxFileSize:  cfg.App.MaxFileSize,
		Stdout:       cmd.OutOrStdout(),
	}, nil
}
