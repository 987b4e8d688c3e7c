package reconcile

import "strings"

const (
	defaultMappingFileNameConstant      = "gitlab-update-branch-config.json"
	configurationMappingFileKeyConstant = "mapping_file"
	configurationAssumeYesKeyConstant   = "assume_yes"
	configurationProjectConcurrencyKey  = "project_concurrency"
	configurationBranchConcurrencyKey   = "branch_concurrency"
	unlimitedBranchConcurrencyConstant  = 0
)

// CommandConfiguration captures configuration values for update-branches.
type CommandConfiguration struct {
	MappingFile        string `mapstructure:"mapping_file"`
	AssumeYes          bool   `mapstructure:"assume_yes"`
	ProjectConcurrency int    `mapstructure:"project_concurrency"`
	BranchConcurrency  int    `mapstructure:"branch_concurrency"`
}

// DefaultCommandConfiguration returns baseline configuration values for update-branches.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		MappingFile:        defaultMappingFileNameConstant,
		AssumeYes:          false,
		ProjectConcurrency: defaultProjectConcurrencyConstant,
		BranchConcurrency:  unlimitedBranchConcurrencyConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationMappingFileKeyConstant: defaults.MappingFile,
		rootKey + "." + configurationAssumeYesKeyConstant:   defaults.AssumeYes,
		rootKey + "." + configurationProjectConcurrencyKey:  defaults.ProjectConcurrency,
		rootKey + "." + configurationBranchConcurrencyKey:   defaults.BranchConcurrency,
	}
}

// Sanitize trims values and replaces out-of-range ones with defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.MappingFile = strings.TrimSpace(configuration.MappingFile)
	if len(sanitized.MappingFile) == 0 {
		sanitized.MappingFile = defaultMappingFileNameConstant
	}
	if sanitized.ProjectConcurrency < defaultProjectConcurrencyConstant {
		sanitized.ProjectConcurrency = defaultProjectConcurrencyConstant
	}
	if sanitized.BranchConcurrency < unlimitedBranchConcurrencyConstant {
		sanitized.BranchConcurrency = unlimitedBranchConcurrencyConstant
	}
	return sanitized
}
