package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/alisync/internal/config"
	"github.com/temirov/alisync/internal/pipeline"
)

const (
	syncCommandUseConstant            = "sync"
	syncCommandShortConstant          = "Rebase the configured repositories onto their remotes"
	buildCommandUseConstant           = "build"
	buildCommandShortConstant         = "Build the packages that request a build"
	cleanCommandUseConstant           = "clean"
	cleanCommandShortConstant         = "Purge build symlinks or prune the build area"
	reportCommandUseConstant          = "report"
	reportCommandShortConstant        = "Print branch and latest commit of every repository"
	listCommandUseConstant            = "list"
	listCommandShortConstant          = "List the configured packages"
	yamlFlagNameConstant              = "yaml"
	yamlFlagUsageConstant             = "Print the packages as a YAML document."
	initCommandUseConstant            = "init"
	initCommandShortConstant          = "Write the default configuration file"
	userFlagNameConstant              = "user"
	userFlagUsageConstant             = "Write into the user configuration directory instead of the working directory."
	forceFlagNameConstant             = "force"
	forceFlagUsageConstant            = "Overwrite an existing configuration file."
	listEntryTemplateConstant         = "%s\t%s\tupdate=%s\tbuild=%s\n"
	initializedFileTemplateConstant   = "Configuration written to %s\n"
	cleanupNotSelectedMessageConstant = "nothing to clean: enable purge or prune"
	affirmativeLabelConstant          = "yes"
	negativeLabelConstant             = "no"
)

// ErrCleanupNotSelected indicates that the clean command ran with neither purge nor prune enabled.
var ErrCleanupNotSelected = errors.New(cleanupNotSelectedMessageConstant)

type stageSelection func(configuration config.RunConfiguration) (pipeline.Stages, error)

func defaultStageSelection(configuration config.RunConfiguration) (pipeline.Stages, error) {
	return pipeline.DefaultStages(configuration), nil
}

func (application *Application) stageCommands() []*cobra.Command {
	return []*cobra.Command{
		application.newStageCommand(syncCommandUseConstant, syncCommandShortConstant, func(config.RunConfiguration) (pipeline.Stages, error) {
			return pipeline.Stages{Synchronize: true}, nil
		}),
		application.newStageCommand(buildCommandUseConstant, buildCommandShortConstant, func(config.RunConfiguration) (pipeline.Stages, error) {
			return pipeline.Stages{Build: true}, nil
		}),
		application.newStageCommand(cleanCommandUseConstant, cleanCommandShortConstant, func(configuration config.RunConfiguration) (pipeline.Stages, error) {
			if !configuration.Cleanup.Enabled() {
				return pipeline.Stages{}, ErrCleanupNotSelected
			}
			return pipeline.Stages{Cleanup: true}, nil
		}),
		application.newStageCommand(reportCommandUseConstant, reportCommandShortConstant, func(config.RunConfiguration) (pipeline.Stages, error) {
			return pipeline.Stages{Report: true}, nil
		}),
	}
}

func (application *Application) newStageCommand(use string, short string, selection stageSelection) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runStages(command, selection)
		},
	}
}

func (application *Application) runStages(command *cobra.Command, selection stageSelection) error {
	stages, selectionError := selection(application.configuration)
	if selectionError != nil {
		return selectionError
	}

	runtime, runtimeError := application.assembleRuntime(command.Context(), command.OutOrStdout(), stages)
	if runtimeError != nil {
		return runtimeError
	}

	_, runError := runtime.runner.Run(command.Context(), runtime.configuration, stages)
	return runError
}

func (application *Application) listCommand() *cobra.Command {
	var renderYAML bool
	listCommand := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			output := command.OutOrStdout()
			if renderYAML {
				return config.WritePackages(output, application.configuration.Packages)
			}
			for _, descriptor := range application.configuration.Packages {
				fmt.Fprintf(output, listEntryTemplateConstant, descriptor.Name, descriptor.RepositoryPath, formatFlag(descriptor.UpdateEnabled), formatFlag(descriptor.BuildEnabled()))
			}
			return nil
		},
	}
	listCommand.Flags().BoolVar(&renderYAML, yamlFlagNameConstant, false, yamlFlagUsageConstant)
	return listCommand
}

func (application *Application) initCommand() *cobra.Command {
	var (
		userDirectory bool
		overwrite     bool
	)
	initCommand := &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortConstant,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			targetDirectory := application.environment.WorkingDirectory
			if userDirectory {
				targetDirectory = application.environment.UserConfigurationDirectory
			}
			configurationPath, initializeError := config.InitializeFile(targetDirectory, overwrite)
			if initializeError != nil {
				return initializeError
			}
			fmt.Fprintf(command.OutOrStdout(), initializedFileTemplateConstant, configurationPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&userDirectory, userFlagNameConstant, false, userFlagUsageConstant)
	initCommand.Flags().BoolVar(&overwrite, forceFlagNameConstant, false, forceFlagUsageConstant)
	return initCommand
}

func formatFlag(value bool) string {
	if value {
		return affirmativeLabelConstant
	}
	return negativeLabelConstant
}

func requiresBuildTool(configuration config.RunConfiguration, stages pipeline.Stages) bool {
	if stages.Cleanup && configuration.Cleanup.Enabled() {
		return true
	}
	if !stages.Build {
		return false
	}
	for _, descriptor := range configuration.Packages {
		if descriptor.BuildEnabled() {
			return true
		}
	}
	return false
}
