// Package config builds the run configuration shared by every alisync stage.
//
// Values come from the embedded defaults, a YAML file found through --config, the
// working directory or $XDG_CONFIG_HOME/alisync, and ALISYNC_* environment variables.
// Package descriptors are validated while decoding and "~" is expanded in every path.
package config
