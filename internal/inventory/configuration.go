package inventory

import "strings"

const (
	defaultOutputFileConstant          = "projects.json"
	configurationOutputFileKeyConstant = "output_file"
)

// CommandConfiguration captures configuration values for export-projects.
type CommandConfiguration struct {
	OutputFile string `mapstructure:"output_file"`
}

// DefaultCommandConfiguration returns baseline configuration values for export-projects.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{OutputFile: defaultOutputFileConstant}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{
		rootKey + "." + configurationOutputFileKeyConstant: DefaultCommandConfiguration().OutputFile,
	}
}

// Sanitize trims the output file and restores the default when empty.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.OutputFile = strings.TrimSpace(configuration.OutputFile)
	if len(sanitized.OutputFile) == 0 {
		sanitized.OutputFile = defaultOutputFileConstant
	}
	return sanitized
}
