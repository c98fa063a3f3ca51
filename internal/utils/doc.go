// Package utils exposes reusable helpers shared by the alisync packages.
//
// ConfigurationLoader merges embedded defaults, configuration files and
// environment variables through Viper. LoggerFactory builds zap loggers for
// the structured and console formats, and FlushingWriter keeps streamed build
// output visible while a command runs.
package utils
