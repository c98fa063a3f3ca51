package packages

import "strings"

// Select keeps the descriptors whose names appear in requestedNames, preserving configuration order.
// An empty selection keeps every descriptor.
func Select(descriptors []PackageDescriptor, requestedNames []string) ([]PackageDescriptor, error) {
	requested := make(map[string]struct{}, len(requestedNames))
	for _, requestedName := range requestedNames {
		trimmedName := strings.TrimSpace(requestedName)
		if len(trimmedName) > 0 {
			requested[trimmedName] = struct{}{}
		}
	}
	if len(requested) == 0 {
		return append([]PackageDescriptor(nil), descriptors...), nil
	}

	selected := make([]PackageDescriptor, 0, len(requested))
	matched := make(map[string]struct{}, len(requested))
	for _, descriptor := range descriptors {
		if _, wanted := requested[descriptor.Name]; wanted {
			selected = append(selected, descriptor)
			matched[descriptor.Name] = struct{}{}
		}
	}

	unknownNames := []string{}
	for _, requestedName := range requestedNames {
		trimmedName := strings.TrimSpace(requestedName)
		if len(trimmedName) == 0 {
			continue
		}
		if _, found := matched[trimmedName]; !found {
			unknownNames = append(unknownNames, trimmedName)
			matched[trimmedName] = struct{}{}
		}
	}
	if len(unknownNames) > 0 {
		return nil, UnknownPackagesError{Names: unknownNames}
	}

	return selected, nil
}
