package packages

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/alisync/internal/utils/flags"
)

const (
	requiredFieldCountConstant    = 6
	fieldCountWithBuildConstant   = 8
	fieldNameKeyConstant          = "name"
	fieldUpdateKeyConstant        = "update"
	fieldPathKeyConstant          = "path"
	fieldUpstreamKeyConstant      = "upstream"
	fieldForkKeyConstant          = "fork"
	fieldBranchKeyConstant        = "branch"
	fieldBuildKeyConstant         = "build"
	fieldBuildOptionsKeyConstant  = "options"
	fieldBuildEnabledKeyConstant  = "enabled"
	invalidToggleTemplateConstant = "%w: %w"
)

var positionalFieldNames = []string{
	fieldNameKeyConstant,
	fieldUpdateKeyConstant,
	fieldPathKeyConstant,
	fieldUpstreamKeyConstant,
	fieldForkKeyConstant,
	fieldBranchKeyConstant,
	fieldBuildOptionsKeyConstant,
	fieldBuildKeyConstant,
}

var descriptorType = reflect.TypeOf(PackageDescriptor{})

// DescriptorFromFields builds a descriptor from the positional form
// [name, update, path, upstream, fork, branch] optionally followed by [build options, build flag].
func DescriptorFromFields(fields []any) (PackageDescriptor, error) {
	descriptorName, _ := textField(firstField(fields))
	if len(fields) != requiredFieldCountConstant && len(fields) != fieldCountWithBuildConstant {
		return PackageDescriptor{}, DescriptorArityError{Name: descriptorName, FieldCount: len(fields)}
	}

	textValues := make(map[string]string, len(fields))
	flagValues := make(map[string]bool, 2)
	for fieldIndex, fieldValue := range fields {
		fieldName := positionalFieldNames[fieldIndex]
		switch fieldName {
		case fieldUpdateKeyConstant, fieldBuildKeyConstant:
			flagValue, flagError := flagField(fieldValue)
			if flagError != nil {
				return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldName, fieldValue, flagError)
			}
			flagValues[fieldName] = flagValue
		default:
			textValue, textError := textField(fieldValue)
			if textError != nil {
				return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldName, fieldValue, textError)
			}
			textValues[fieldName] = textValue
		}
	}

	options := DescriptorOptions{
		Name:           textValues[fieldNameKeyConstant],
		UpdateEnabled:  flagValues[fieldUpdateKeyConstant],
		RepositoryPath: textValues[fieldPathKeyConstant],
		UpstreamRemote: textValues[fieldUpstreamKeyConstant],
		ForkRemote:     textValues[fieldForkKeyConstant],
		MainBranch:     textValues[fieldBranchKeyConstant],
	}
	if len(fields) == fieldCountWithBuildConstant {
		options.Build = &BuildConfiguration{
			Options: textValues[fieldBuildOptionsKeyConstant],
			Enabled: flagValues[fieldBuildKeyConstant],
		}
	}

	return NewDescriptor(options)
}

// DescriptorFromMapping builds a descriptor from the keyed configuration form.
func DescriptorFromMapping(entry map[string]any) (PackageDescriptor, error) {
	descriptorName, _ := textField(entry[fieldNameKeyConstant])
	options := DescriptorOptions{}

	textTargets := map[string]*string{
		fieldNameKeyConstant:     &options.Name,
		fieldPathKeyConstant:     &options.RepositoryPath,
		fieldUpstreamKeyConstant: &options.UpstreamRemote,
		fieldForkKeyConstant:     &options.ForkRemote,
		fieldBranchKeyConstant:   &options.MainBranch,
	}
	for fieldName, target := range textTargets {
		textValue, textError := textField(entry[fieldName])
		if textError != nil {
			return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldName, entry[fieldName], textError)
		}
		*target = textValue
	}

	if rawUpdate, present := entry[fieldUpdateKeyConstant]; present {
		updateEnabled, flagError := flagField(rawUpdate)
		if flagError != nil {
			return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldUpdateKeyConstant, rawUpdate, flagError)
		}
		options.UpdateEnabled = updateEnabled
	}

	if rawBuild, present := entry[fieldBuildKeyConstant]; present && rawBuild != nil {
		buildEntry, isMapping := normalizeMapping(rawBuild)
		if !isMapping {
			return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldBuildKeyConstant, rawBuild, ErrInvalidDescriptorField)
		}
		buildOptions, textError := textField(buildEntry[fieldBuildOptionsKeyConstant])
		if textError != nil {
			return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldBuildOptionsKeyConstant, buildEntry[fieldBuildOptionsKeyConstant], textError)
		}
		buildEnabled := true
		if rawEnabled, enabledPresent := buildEntry[fieldBuildEnabledKeyConstant]; enabledPresent {
			parsedEnabled, flagError := flagField(rawEnabled)
			if flagError != nil {
				return PackageDescriptor{}, fmt.Errorf(descriptorFieldInvalidTemplateConstant, descriptorName, fieldBuildEnabledKeyConstant, rawEnabled, flagError)
			}
			buildEnabled = parsedEnabled
		}
		options.Build = &BuildConfiguration{Options: buildOptions, Enabled: buildEnabled}
	}

	return NewDescriptor(options)
}

// DescriptorDecodeHook converts positional lists and keyed mappings into validated descriptors while decoding configuration.
func DescriptorDecodeHook() mapstructure.DecodeHookFuncType {
	return func(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
		if targetType != descriptorType {
			return data, nil
		}
		if positionalFields, isList := data.([]any); isList {
			return DescriptorFromFields(positionalFields)
		}
		if entry, isMapping := normalizeMapping(data); isMapping {
			return DescriptorFromMapping(entry)
		}
		return data, nil
	}
}

func firstField(fields []any) any {
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}

func normalizeMapping(data any) (map[string]any, bool) {
	switch typedData := data.(type) {
	case map[string]any:
		return typedData, true
	case map[any]any:
		normalized := make(map[string]any, len(typedData))
		for key, value := range typedData {
			normalized[fmt.Sprint(key)] = value
		}
		return normalized, true
	default:
		return nil, false
	}
}

func textField(value any) (string, error) {
	switch typedValue := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(typedValue), nil
	case int:
		return strconv.Itoa(typedValue), nil
	case int64:
		return strconv.FormatInt(typedValue, 10), nil
	case uint64:
		return strconv.FormatUint(typedValue, 10), nil
	case float64:
		return strconv.FormatFloat(typedValue, 'f', -1, 64), nil
	default:
		return "", ErrInvalidDescriptorField
	}
}

func flagField(value any) (bool, error) {
	switch typedValue := value.(type) {
	case bool:
		return typedValue, nil
	case int:
		return integerFlag(int64(typedValue))
	case int64:
		return integerFlag(typedValue)
	case uint64:
		return integerFlag(int64(typedValue))
	case string:
		if len(strings.TrimSpace(typedValue)) == 0 {
			return false, ErrInvalidDescriptorField
		}
		parsedValue, parseError := flags.ParseToggleValue(typedValue)
		if parseError != nil {
			return false, fmt.Errorf(invalidToggleTemplateConstant, ErrInvalidDescriptorField, parseError)
		}
		return parsedValue, nil
	default:
		return false, ErrInvalidDescriptorField
	}
}

func integerFlag(value int64) (bool, error) {
	switch value {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidDescriptorField
	}
}
