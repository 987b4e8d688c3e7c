package protection

import (
	"fmt"
	"strings"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	defaultMappingFileConstant               = "gitlab-protected-branch-config.json"
	defaultAccessLevelConstant               = "maintainer"
	configurationMappingFileKeyConstant      = "mapping_file"
	configurationPushAccessLevelKeyConstant  = "push_access_level"
	configurationMergeAccessLevelKeyConstant = "merge_access_level"
	pushAccessLevelErrorTemplateConstant     = "invalid push access level: %w"
	mergeAccessLevelErrorTemplateConstant    = "invalid merge access level: %w"
)

// CommandConfiguration captures configuration values for protect-branches.
type CommandConfiguration struct {
	MappingFile      string `mapstructure:"mapping_file"`
	PushAccessLevel  string `mapstructure:"push_access_level"`
	MergeAccessLevel string `mapstructure:"merge_access_level"`
}

// DefaultCommandConfiguration returns baseline configuration values for protect-branches.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		MappingFile:      defaultMappingFileConstant,
		PushAccessLevel:  defaultAccessLevelConstant,
		MergeAccessLevel: defaultAccessLevelConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationMappingFileKeyConstant:      defaults.MappingFile,
		rootKey + "." + configurationPushAccessLevelKeyConstant:  defaults.PushAccessLevel,
		rootKey + "." + configurationMergeAccessLevelKeyConstant: defaults.MergeAccessLevel,
	}
}

// Sanitize trims values and restores defaults for empty ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := CommandConfiguration{
		MappingFile:      strings.TrimSpace(configuration.MappingFile),
		PushAccessLevel:  strings.TrimSpace(configuration.PushAccessLevel),
		MergeAccessLevel: strings.TrimSpace(configuration.MergeAccessLevel),
	}
	if len(sanitized.MappingFile) == 0 {
		sanitized.MappingFile = defaults.MappingFile
	}
	if len(sanitized.PushAccessLevel) == 0 {
		sanitized.PushAccessLevel = defaults.PushAccessLevel
	}
	if len(sanitized.MergeAccessLevel) == 0 {
		sanitized.MergeAccessLevel = defaults.MergeAccessLevel
	}
	return sanitized
}

// ProtectionOptions converts the configured access level names.
func (configuration CommandConfiguration) ProtectionOptions() (gitlabapi.ProtectionOptions, error) {
	pushLevel, pushError := gitlabapi.ParseAccessLevel(configuration.PushAccessLevel)
	if pushError != nil {
		return gitlabapi.ProtectionOptions{}, fmt.Errorf(pushAccessLevelErrorTemplateConstant, pushError)
	}
	mergeLevel, mergeError := gitlabapi.ParseAccessLevel(configuration.MergeAccessLevel)
	if mergeError != nil {
		return gitlabapi.ProtectionOptions{}, fmt.Errorf(mergeAccessLevelErrorTemplateConstant, mergeError)
	}
	return gitlabapi.ProtectionOptions{PushAccessLevel: pushLevel, MergeAccessLevel: mergeLevel}, nil
}
