package config

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/alisync/internal/utils/flags"
)

// toggleDecodeHook accepts yes/no and on/off strings for boolean settings, including values from the environment.
func toggleDecodeHook() mapstructure.DecodeHookFuncType {
	return func(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
		if sourceType.Kind() != reflect.String || targetType.Kind() != reflect.Bool {
			return data, nil
		}
		rawValue, isString := data.(string)
		if !isString {
			return data, nil
		}
		if len(strings.TrimSpace(rawValue)) == 0 {
			return false, nil
		}
		return flags.ParseToggleValue(rawValue)
	}
}
