package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/alisync/internal/packages"
)

const (
	yamlIndentConstant                     = 2
	configurationExistsMessageConstant     = "configuration file already exists"
	configurationExistsTemplateConstant    = "%w: %s"
	configurationDirectoryTemplateConstant = "unable to create configuration directory %s: %w"
	configurationWriteTemplateConstant     = "unable to write configuration file %s: %w"
	configurationEncodeTemplateConstant    = "unable to encode configuration: %w"
	configurationDirectoryPermissionsOctal = 0o755
	configurationFilePermissionsOctal      = 0o644
)

// ErrConfigurationExists indicates InitializeFile refused to overwrite an existing file.
var ErrConfigurationExists = errors.New(configurationExistsMessageConstant)

type packageListDocument struct {
	Packages []packages.PackageDescriptor `yaml:"packages"`
}

// WriteConfiguration renders the resolved configuration as YAML.
func WriteConfiguration(writer io.Writer, configuration RunConfiguration) error {
	return encodeYAML(writer, configuration)
}

// WritePackages renders descriptors in the keyed form accepted under the packages key.
func WritePackages(writer io.Writer, descriptors []packages.PackageDescriptor) error {
	return encodeYAML(writer, packageListDocument{Packages: descriptors})
}

// InitializeFile writes the embedded default configuration to <directory>/config.yaml and returns the file path.
func InitializeFile(directory string, overwrite bool) (string, error) {
	configurationPath := filepath.Join(directory, configurationFileNameConstant)

	if _, statError := os.Stat(configurationPath); statError == nil && !overwrite {
		return "", fmt.Errorf(configurationExistsTemplateConstant, ErrConfigurationExists, configurationPath)
	} else if statError != nil && !errors.Is(statError, fs.ErrNotExist) {
		return "", fmt.Errorf(configurationWriteTemplateConstant, configurationPath, statError)
	}

	if mkdirError := os.MkdirAll(directory, configurationDirectoryPermissionsOctal); mkdirError != nil {
		return "", fmt.Errorf(configurationDirectoryTemplateConstant, directory, mkdirError)
	}

	content, _ := EmbeddedDefaultConfiguration()
	if writeError := os.WriteFile(configurationPath, content, configurationFilePermissionsOctal); writeError != nil {
		return "", fmt.Errorf(configurationWriteTemplateConstant, configurationPath, writeError)
	}
	return configurationPath, nil
}

func encodeYAML(writer io.Writer, document any) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(yamlIndentConstant)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(configurationEncodeTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(configurationEncodeTemplateConstant, closeError)
	}
	return nil
}
