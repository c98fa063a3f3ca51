package packages

import (
	"fmt"
	"strings"
)

// BuildConfiguration holds the paired optional build fields of a descriptor.
type BuildConfiguration struct {
	Options string `mapstructure:"options" yaml:"options"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PackageDescriptor describes one managed repository and how it is built.
// Values are constructed through NewDescriptor or DescriptorFromFields and are not mutated afterwards.
type PackageDescriptor struct {
	Name           string              `mapstructure:"name" yaml:"name"`
	UpdateEnabled  bool                `mapstructure:"update" yaml:"update"`
	RepositoryPath string              `mapstructure:"path" yaml:"path"`
	UpstreamRemote string              `mapstructure:"upstream" yaml:"upstream"`
	ForkRemote     string              `mapstructure:"fork" yaml:"fork,omitempty"`
	MainBranch     string              `mapstructure:"branch" yaml:"branch"`
	Build          *BuildConfiguration `mapstructure:"build" yaml:"build,omitempty"`
}

// DescriptorOptions enumerates the inputs accepted by NewDescriptor.
type DescriptorOptions struct {
	Name           string
	UpdateEnabled  bool
	RepositoryPath string
	UpstreamRemote string
	ForkRemote     string
	MainBranch     string
	Build          *BuildConfiguration
}

// NewDescriptor validates the options and returns an immutable descriptor.
func NewDescriptor(options DescriptorOptions) (PackageDescriptor, error) {
	descriptor := PackageDescriptor{
		Name:           strings.TrimSpace(options.Name),
		UpdateEnabled:  options.UpdateEnabled,
		RepositoryPath: strings.TrimSpace(options.RepositoryPath),
		UpstreamRemote: strings.TrimSpace(options.UpstreamRemote),
		ForkRemote:     strings.TrimSpace(options.ForkRemote),
		MainBranch:     strings.TrimSpace(options.MainBranch),
	}
	if options.Build != nil {
		buildCopy := BuildConfiguration{Options: strings.TrimSpace(options.Build.Options), Enabled: options.Build.Enabled}
		descriptor.Build = &buildCopy
	}

	if len(descriptor.Name) == 0 {
		return PackageDescriptor{}, ErrMissingPackageName
	}
	if len(descriptor.RepositoryPath) == 0 {
		return PackageDescriptor{}, fmt.Errorf(descriptorFieldMissingTemplateConstant, descriptor.Name, ErrMissingRepositoryPath)
	}
	if len(descriptor.MainBranch) == 0 {
		return PackageDescriptor{}, fmt.Errorf(descriptorFieldMissingTemplateConstant, descriptor.Name, ErrMissingMainBranch)
	}
	if descriptor.UpdateEnabled && len(descriptor.UpstreamRemote) == 0 {
		return PackageDescriptor{}, fmt.Errorf(descriptorFieldMissingTemplateConstant, descriptor.Name, ErrMissingUpstreamRemote)
	}

	return descriptor, nil
}

// HasFork reports whether a fork remote is configured.
func (descriptor PackageDescriptor) HasFork() bool {
	return len(descriptor.ForkRemote) > 0
}

// BuildEnabled reports whether the package is built after synchronization.
func (descriptor PackageDescriptor) BuildEnabled() bool {
	return descriptor.Build != nil && descriptor.Build.Enabled
}

// BuildOptions returns the extra build tool arguments, empty when no build sub-record exists.
func (descriptor PackageDescriptor) BuildOptions() string {
	if descriptor.Build == nil {
		return ""
	}
	return descriptor.Build.Options
}

// WithRepositoryPath returns a copy of the descriptor pointing at another repository path.
func (descriptor PackageDescriptor) WithRepositoryPath(repositoryPath string) PackageDescriptor {
	updated := descriptor
	updated.RepositoryPath = repositoryPath
	if descriptor.Build != nil {
		buildCopy := *descriptor.Build
		updated.Build = &buildCopy
	}
	return updated
}
