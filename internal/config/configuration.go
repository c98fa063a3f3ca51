package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/temirov/alisync/internal/cleanup"
	"github.com/temirov/alisync/internal/packages"
	"github.com/temirov/alisync/internal/utils"
	pathutils "github.com/temirov/alisync/internal/utils/path"
)

const (
	configurationNameConstant           = "config"
	configurationTypeConstant           = "yaml"
	configurationFileNameConstant       = configurationNameConstant + "." + configurationTypeConstant
	environmentPrefixConstant           = "ALISYNC"
	applicationDirectoryNameConstant    = "alisync"
	currentDirectorySearchPathConstant  = "."
	rootRequiredMessageConstant         = "root directory is required"
	executableRequiredMessageConstant   = "executable name is required"
	duplicatePackageMessageConstant     = "package is listed more than once"
	configurationLoadTemplateConstant   = "unable to load configuration: %w"
	executableRequiredTemplateConstant  = "%s: %w"
	duplicatePackageTemplateConstant    = "%w: %s"
	anchorConfigurationTemplateConstant = "cleanup anchors: %w"
	buildToolKeyConstant                = "build_tool"
	gitExecutableKeyConstant            = "git_executable"
	commonLogLevelConfigKeyConstant     = "common.log_level"
	commonLogFormatConfigKeyConstant    = "common.log_format"
	defaultBuildToolConstant            = "aliBuild"
	defaultGitExecutableConstant        = "git"
	defaultLogLevelConstant             = string(utils.LogLevelInfo)
	defaultLogFormatConstant            = string(utils.LogFormatConsole)
	defaultRootConstant                 = "~/alice"
	rootKeyConstant                     = "root"
	reportKeyConstant                   = "report"
	defaultReportConstant               = true
	cleanupHumanReadableKeyConstant     = "cleanup.human_readable"
	defaultCleanupHumanReadableConstant = true
	cleanupPurgeKeyConstant             = "cleanup.purge"
	cleanupPruneKeyConstant             = "cleanup.prune"
	architectureKeyConstant             = "architecture"
)

var (
	// ErrRootRequired indicates the configuration does not name a root directory.
	ErrRootRequired = errors.New(rootRequiredMessageConstant)
	// ErrExecutableRequired indicates an empty git or build tool executable name.
	ErrExecutableRequired = errors.New(executableRequiredMessageConstant)
	// ErrDuplicatePackage indicates two descriptors share a name.
	ErrDuplicatePackage = errors.New(duplicatePackageMessageConstant)
)

// CommonConfiguration stores logging configuration shared across commands.
type CommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// CleanupConfiguration selects the cleanup phases and the anchor packages rebuilt by a purge.
type CleanupConfiguration struct {
	Purge         bool                    `mapstructure:"purge" yaml:"purge"`
	Prune         bool                    `mapstructure:"prune" yaml:"prune"`
	HumanReadable bool                    `mapstructure:"human_readable" yaml:"human_readable"`
	Anchors       []cleanup.AnchorPackage `mapstructure:"anchors" yaml:"anchors"`
}

// Enabled reports whether any cleanup phase is selected.
func (configuration CleanupConfiguration) Enabled() bool {
	return configuration.Purge || configuration.Prune
}

// Validate requires exactly cleanup.RequiredAnchorCount anchors when purge is selected.
func (configuration CleanupConfiguration) Validate() error {
	if configuration.Purge && len(configuration.Anchors) != cleanup.RequiredAnchorCount {
		return fmt.Errorf(anchorConfigurationTemplateConstant, cleanup.ErrAnchorCount)
	}
	return nil
}

// Options converts the configuration into cleanup service options.
func (configuration CleanupConfiguration) Options() cleanup.Options {
	anchors := make([]cleanup.AnchorPackage, len(configuration.Anchors))
	copy(anchors, configuration.Anchors)
	return cleanup.Options{Purge: configuration.Purge, Prune: configuration.Prune, Anchors: anchors}
}

// RunConfiguration is built once at startup and passed by value to every stage.
type RunConfiguration struct {
	Common        CommonConfiguration          `mapstructure:"common" yaml:"common"`
	Root          string                       `mapstructure:"root" yaml:"root"`
	Architecture  string                       `mapstructure:"architecture" yaml:"architecture"`
	BuildTool     string                       `mapstructure:"build_tool" yaml:"build_tool"`
	GitExecutable string                       `mapstructure:"git_executable" yaml:"git_executable"`
	Report        bool                         `mapstructure:"report" yaml:"report"`
	Cleanup       CleanupConfiguration         `mapstructure:"cleanup" yaml:"cleanup"`
	Packages      []packages.PackageDescriptor `mapstructure:"packages" yaml:"packages"`
}

// Layout locates the build tool work area for the configured root and architecture.
func (configuration RunConfiguration) Layout() cleanup.Layout {
	return cleanup.Layout{Root: configuration.Root, Architecture: configuration.Architecture}
}

// WithArchitecture returns a copy carrying the resolved architecture.
func (configuration RunConfiguration) WithArchitecture(architecture string) RunConfiguration {
	updated := configuration
	updated.Architecture = strings.TrimSpace(architecture)
	return updated
}

// DefaultValues returns the scalar defaults registered with the loader so environment overrides apply to them.
func DefaultValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:  defaultLogLevelConstant,
		commonLogFormatConfigKeyConstant: defaultLogFormatConstant,
		rootKeyConstant:                  defaultRootConstant,
		architectureKeyConstant:          "",
		buildToolKeyConstant:             defaultBuildToolConstant,
		gitExecutableKeyConstant:         defaultGitExecutableConstant,
		reportKeyConstant:                defaultReportConstant,
		cleanupPurgeKeyConstant:          false,
		cleanupPruneKeyConstant:          false,
		cleanupHumanReadableKeyConstant:  defaultCleanupHumanReadableConstant,
	}
}

// DefaultSearchPaths lists the working directory followed by the user configuration directory.
func DefaultSearchPaths() []string {
	return []string{currentDirectorySearchPathConstant, UserConfigurationDirectory()}
}

// UserConfigurationDirectory is $XDG_CONFIG_HOME/alisync.
func UserConfigurationDirectory() string {
	return filepath.Join(xdg.ConfigHome, applicationDirectoryNameConstant)
}

// Loader resolves the run configuration from embedded defaults, a configuration file and the environment.
type Loader struct {
	configurationLoader *utils.ConfigurationLoader
	homeExpander        *pathutils.HomeExpander
}

// NewLoader constructs a Loader searching the provided directories.
func NewLoader(searchPaths []string, homeExpander *pathutils.HomeExpander) *Loader {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		searchPaths,
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.AddDecodeHook(toggleDecodeHook())
	configurationLoader.AddDecodeHook(packages.DescriptorDecodeHook())

	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	return &Loader{configurationLoader: configurationLoader, homeExpander: homeExpander}
}

// Load reads the configuration. An explicit configurationFilePath must exist.
func (loader *Loader) Load(configurationFilePath string) (RunConfiguration, utils.LoadedConfiguration, error) {
	var configuration RunConfiguration
	loadedConfiguration, loadError := loader.configurationLoader.LoadConfiguration(
		loader.homeExpander.Expand(strings.TrimSpace(configurationFilePath)),
		DefaultValues(),
		&configuration,
	)
	if loadError != nil {
		return RunConfiguration{}, utils.LoadedConfiguration{}, fmt.Errorf(configurationLoadTemplateConstant, loadError)
	}

	normalizedConfiguration, normalizationError := loader.normalize(configuration)
	if normalizationError != nil {
		return RunConfiguration{}, utils.LoadedConfiguration{}, fmt.Errorf(configurationLoadTemplateConstant, normalizationError)
	}

	return normalizedConfiguration, loadedConfiguration, nil
}

func (loader *Loader) normalize(configuration RunConfiguration) (RunConfiguration, error) {
	normalized := configuration
	normalized.Common.LogLevel = strings.TrimSpace(configuration.Common.LogLevel)
	normalized.Common.LogFormat = strings.TrimSpace(configuration.Common.LogFormat)
	normalized.Architecture = strings.TrimSpace(configuration.Architecture)

	normalized.Root = loader.homeExpander.Expand(strings.TrimSpace(configuration.Root))
	if len(normalized.Root) == 0 {
		return RunConfiguration{}, ErrRootRequired
	}

	normalized.BuildTool = strings.TrimSpace(configuration.BuildTool)
	if len(normalized.BuildTool) == 0 {
		return RunConfiguration{}, fmt.Errorf(executableRequiredTemplateConstant, buildToolKeyConstant, ErrExecutableRequired)
	}
	normalized.GitExecutable = strings.TrimSpace(configuration.GitExecutable)
	if len(normalized.GitExecutable) == 0 {
		return RunConfiguration{}, fmt.Errorf(executableRequiredTemplateConstant, gitExecutableKeyConstant, ErrExecutableRequired)
	}

	normalized.Cleanup.Anchors = make([]cleanup.AnchorPackage, 0, len(configuration.Cleanup.Anchors))
	for _, anchor := range configuration.Cleanup.Anchors {
		normalized.Cleanup.Anchors = append(normalized.Cleanup.Anchors, cleanup.AnchorPackage{
			Name:    strings.TrimSpace(anchor.Name),
			Options: strings.TrimSpace(anchor.Options),
		})
	}
	if validationError := normalized.Cleanup.Validate(); validationError != nil {
		return RunConfiguration{}, validationError
	}

	normalized.Packages = make([]packages.PackageDescriptor, 0, len(configuration.Packages))
	seenNames := make(map[string]struct{}, len(configuration.Packages))
	for _, descriptor := range configuration.Packages {
		if _, seen := seenNames[descriptor.Name]; seen {
			return RunConfiguration{}, fmt.Errorf(duplicatePackageTemplateConstant, ErrDuplicatePackage, descriptor.Name)
		}
		seenNames[descriptor.Name] = struct{}{}
		normalized.Packages = append(normalized.Packages, descriptor.WithRepositoryPath(loader.homeExpander.Expand(descriptor.RepositoryPath)))
	}

	return normalized, nil
}
