package schema

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode binds validated data into out, a pointer to a struct, map or
// slice. Keys are matched against json tags.
func Decode(data any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("schema: decoder: %w", err)
	}

	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("schema: decode: %w", err)
	}

	return nil
}
