package packages

import (
	"errors"
	"fmt"
	"strings"
)

const (
	descriptorFieldMissingTemplateConstant = "package %s: %w"
	descriptorArityTemplateConstant        = "package descriptor %s has %d fields; expected %d or %d"
	descriptorFieldInvalidTemplateConstant = "package %s: field %s has invalid value %v: %w"
	unknownPackagesTemplateConstant        = "unknown packages: %s"
	unnamedDescriptorLabelConstant         = "<unnamed>"
	unknownPackagesSeparatorConstant       = ", "
)

var (
	// ErrMissingPackageName indicates a descriptor without a name.
	ErrMissingPackageName = errors.New("package descriptor name is required")
	// ErrMissingRepositoryPath indicates a descriptor without a repository path.
	ErrMissingRepositoryPath = errors.New("repository path is required")
	// ErrMissingMainBranch indicates a descriptor without a main branch.
	ErrMissingMainBranch = errors.New("main branch is required")
	// ErrMissingUpstreamRemote indicates an updatable descriptor without an upstream remote.
	ErrMissingUpstreamRemote = errors.New("upstream remote is required when update is enabled")
	// ErrInvalidDescriptorField indicates a positional field with an unusable type or value.
	ErrInvalidDescriptorField = errors.New("invalid descriptor field")
	// ErrUnknownPackage indicates a package selection that matches no descriptor.
	ErrUnknownPackage = errors.New("unknown package")
)

// DescriptorArityError reports a positional descriptor with a field count other than six or eight.
type DescriptorArityError struct {
	Name       string
	FieldCount int
}

// Error describes the arity violation.
func (arityError DescriptorArityError) Error() string {
	name := arityError.Name
	if len(name) == 0 {
		name = unnamedDescriptorLabelConstant
	}
	return fmt.Sprintf(descriptorArityTemplateConstant, name, arityError.FieldCount, requiredFieldCountConstant, fieldCountWithBuildConstant)
}

// UnknownPackagesError lists requested package names absent from the configuration.
type UnknownPackagesError struct {
	Names []string
}

// Error lists the unknown names.
func (unknownError UnknownPackagesError) Error() string {
	return fmt.Sprintf(unknownPackagesTemplateConstant, strings.Join(unknownError.Names, unknownPackagesSeparatorConstant))
}

// Is matches ErrUnknownPackage.
func (unknownError UnknownPackagesError) Is(target error) bool {
	return target == ErrUnknownPackage
}
