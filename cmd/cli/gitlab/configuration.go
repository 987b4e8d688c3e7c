package gitlab

import (
	"strings"

	"github.com/temirov/devops/internal/gitlabapi"
	"github.com/temirov/devops/internal/inventory"
	"github.com/temirov/devops/internal/protection"
	"github.com/temirov/devops/internal/reconcile"
)

const (
	defaultOutputDirectoryConstant          = "~/Desktop/gitlab"
	configurationBaseURLKeyConstant         = "base_url"
	configurationTokenKeyConstant           = "token"
	configurationOutputDirectoryKeyConstant = "output_directory"
	updateBranchesConfigurationKeyConstant  = "update_branches"
	protectBranchesConfigurationKeyConstant = "protect_branches"
	exportProjectsConfigurationKeyConstant  = "export_projects"
	configurationKeySeparatorConstant       = "."
)

// ToolsConfiguration captures the connection settings shared by GitLab
// commands and one section per command.
type ToolsConfiguration struct {
	BaseURL         string                          `mapstructure:"base_url"`
	Token           string                          `mapstructure:"token"`
	OutputDirectory string                          `mapstructure:"output_directory"`
	UpdateBranches  reconcile.CommandConfiguration  `mapstructure:"update_branches"`
	ProtectBranches protection.CommandConfiguration `mapstructure:"protect_branches"`
	ExportProjects  inventory.CommandConfiguration  `mapstructure:"export_projects"`
}

// DefaultToolsConfiguration returns baseline configuration values for GitLab commands.
func DefaultToolsConfiguration() ToolsConfiguration {
	return ToolsConfiguration{
		OutputDirectory: defaultOutputDirectoryConstant,
		UpdateBranches:  reconcile.DefaultCommandConfiguration(),
		ProtectBranches: protection.DefaultCommandConfiguration(),
		ExportProjects:  inventory.DefaultCommandConfiguration(),
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey. Empty
// connection values are registered so environment variables can supply them.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultToolsConfiguration()
	values := map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationBaseURLKeyConstant:         defaults.BaseURL,
		rootKey + configurationKeySeparatorConstant + configurationTokenKeyConstant:           defaults.Token,
		rootKey + configurationKeySeparatorConstant + configurationOutputDirectoryKeyConstant: defaults.OutputDirectory,
	}
	sections := []map[string]any{
		reconcile.DefaultConfigurationValues(rootKey + configurationKeySeparatorConstant + updateBranchesConfigurationKeyConstant),
		protection.DefaultConfigurationValues(rootKey + configurationKeySeparatorConstant + protectBranchesConfigurationKeyConstant),
		inventory.DefaultConfigurationValues(rootKey + configurationKeySeparatorConstant + exportProjectsConfigurationKeyConstant),
	}
	for _, section := range sections {
		for key, value := range section {
			values[key] = value
		}
	}
	return values
}

// Connection returns the GitLab client settings.
func (configuration ToolsConfiguration) Connection() gitlabapi.Configuration {
	return gitlabapi.Configuration{
		BaseURL: strings.TrimSpace(configuration.BaseURL),
		Token:   strings.TrimSpace(configuration.Token),
	}
}

// ResolvedOutputDirectory returns the directory mapping and export files are
// resolved against.
func (configuration ToolsConfiguration) ResolvedOutputDirectory() string {
	directory := strings.TrimSpace(configuration.OutputDirectory)
	if len(directory) == 0 {
		return defaultOutputDirectoryConstant
	}
	return directory
}
