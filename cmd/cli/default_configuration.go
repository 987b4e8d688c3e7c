package cli

import _ "embed"

// embeddedDefaultConfigurationContent mirrors every key registered by
// gitlab.DefaultConfigurationValues so users can copy it as a starting point.
//
//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the embedded default
// configuration and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfigurationContent...), configurationTypeConstant
}
