package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/cleanup"
	"github.com/temirov/alisync/internal/config"
	"github.com/temirov/alisync/internal/execshell"
	"github.com/temirov/alisync/internal/gitrepo"
	"github.com/temirov/alisync/internal/packages"
	"github.com/temirov/alisync/internal/synchronize"
	"github.com/temirov/alisync/internal/utils"
	"github.com/temirov/alisync/internal/utils/flags"
	pathutils "github.com/temirov/alisync/internal/utils/path"
)

const (
	applicationNameConstant                 = "alisync"
	applicationShortDescriptionConstant     = "Synchronize ALICE software repositories and rebuild their packages"
	applicationLongDescriptionConstant      = "alisync rebases every configured repository onto its fork and upstream remotes, builds the packages that request it, optionally cleans the build area and reports the state of each repository."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a YAML configuration file."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	packageFlagNameConstant                 = "package"
	packageFlagShorthandConstant            = "p"
	packageFlagUsageConstant                = "Restrict processing to the named package (repeatable)."
	purgeFlagNameConstant                   = "purge"
	purgeFlagUsageConstant                  = "Delete build symlinks and restore those of the anchor packages."
	pruneFlagNameConstant                   = "prune"
	pruneFlagUsageConstant                  = "Run the build tool clean command."
	reportFlagNameConstant                  = "report"
	reportFlagUsageConstant                 = "Print branch and latest commit of every repository."
	humanReadableFlagNameConstant           = "human-readable"
	humanReadableFlagUsageConstant          = "Print reclaimed disk space in IEC units."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationPackagesFieldConstant      = "packages"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
)

// Version is reported by --version and replaced at link time.
var Version = "dev"

// RuntimeEnvironment supplies the process-level collaborators of the application.
type RuntimeEnvironment struct {
	PathLookup                 execshell.PathLookup
	CommandRunner              execshell.CommandRunner
	FileSystem                 billy.Filesystem
	RepositoryVerifier         synchronize.RepositoryVerifier
	HomeExpander               *pathutils.HomeExpander
	SearchPaths                []string
	WorkingDirectory           string
	UserConfigurationDirectory string
}

// DefaultRuntimeEnvironment uses the host filesystem, PATH lookup and os/exec.
func DefaultRuntimeEnvironment() RuntimeEnvironment {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		workingDirectory = "."
	}
	return RuntimeEnvironment{
		CommandRunner:              execshell.NewOSCommandRunner(),
		FileSystem:                 cleanup.NewHostFileSystem(),
		RepositoryVerifier:         gitrepo.NewRepositoryInspector(),
		HomeExpander:               pathutils.NewHomeExpander(),
		SearchPaths:                config.DefaultSearchPaths(),
		WorkingDirectory:           workingDirectory,
		UserConfigurationDirectory: config.UserConfigurationDirectory(),
	}
}

type toggleOverrides struct {
	purge         bool
	prune         bool
	report        bool
	humanReadable bool
}

// Application wires the Cobra command hierarchy, configuration loader and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	environment           RuntimeEnvironment
	configurationLoader   *config.Loader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         config.RunConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	packageNames          []string
	toggles               toggleOverrides
}

// NewApplication assembles an application backed by the host environment.
func NewApplication() *Application {
	return NewApplicationWithEnvironment(DefaultRuntimeEnvironment())
}

// NewApplicationWithEnvironment assembles an application backed by the provided environment.
func NewApplicationWithEnvironment(environment RuntimeEnvironment) *Application {
	application := &Application{
		environment:         environment,
		configurationLoader: config.NewLoader(environment.SearchPaths, environment.HomeExpander),
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runStages(command, defaultStageSelection)
		},
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogLevelInfo), logLevelChoices(), logLevelFlagUsageConstant))
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatConsole), logFormatChoices(), logFormatFlagUsageConstant))
	persistentFlags.StringArrayVarP(&application.packageNames, packageFlagNameConstant, packageFlagShorthandConstant, nil, packageFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.toggles.purge, purgeFlagNameConstant, false, purgeFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.toggles.prune, pruneFlagNameConstant, false, pruneFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.toggles.report, reportFlagNameConstant, false, reportFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.toggles.humanReadable, humanReadableFlagNameConstant, false, humanReadableFlagUsageConstant)

	for _, stageCommand := range application.stageCommands() {
		rootCommand.AddCommand(stageCommand)
	}
	rootCommand.AddCommand(application.listCommand())
	rootCommand.AddCommand(application.initCommand())

	application.rootCommand = rootCommand
	return application
}

// Execute runs the command hierarchy with the process arguments, cancelling on SIGINT or SIGTERM.
func (application *Application) Execute() error {
	executionContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	return application.ExecuteWithArguments(executionContext, os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy with explicit arguments and flushes the logger.
func (application *Application) ExecuteWithArguments(executionContext context.Context, arguments []string) error {
	normalizedArguments := flags.NormalizeToggleArguments(arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)

	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes it.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	configuration, loadedConfiguration, loadError := application.configurationLoader.Load(application.configurationFilePath)
	if loadError != nil {
		return loadError
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, purgeFlagNameConstant) {
		configuration.Cleanup.Purge = application.toggles.purge
	}
	if application.persistentFlagChanged(command, pruneFlagNameConstant) {
		configuration.Cleanup.Prune = application.toggles.prune
	}
	if application.persistentFlagChanged(command, reportFlagNameConstant) {
		configuration.Report = application.toggles.report
	}
	if application.persistentFlagChanged(command, humanReadableFlagNameConstant) {
		configuration.Cleanup.HumanReadable = application.toggles.humanReadable
	}
	if validationError := configuration.Cleanup.Validate(); validationError != nil {
		return validationError
	}

	if len(application.packageNames) > 0 {
		selectedPackages, selectionError := packages.Select(configuration.Packages, application.packageNames)
		if selectionError != nil {
			return selectionError
		}
		configuration.Packages = selectedPackages
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(configuration.Common.LogLevel),
		utils.LogFormat(configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.configuration = configuration
	application.logger = logger
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, loadedConfiguration.ConfigFileUsed),
		zap.Int(configurationPackagesFieldConstant, len(configuration.Packages)),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

func logLevelChoices() []string {
	return []string{
		string(utils.LogLevelDebug),
		string(utils.LogLevelInfo),
		string(utils.LogLevelWarn),
		string(utils.LogLevelError),
	}
}

func logFormatChoices() []string {
	return []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
}
