// Package utils exposes reusable helpers consumed by the devops commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory, and
// ConsoleWriter that serializes command output.
package utils
