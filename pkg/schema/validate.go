package schema

import "sort"

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// Validate checks the fields present in data against the schema.
// Card fields are optional, so missing keys are fine and unknown keys are ignored.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 || len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		fieldType, ok := schema[key]
		if !ok {
			continue
		}
		value := data[key]
		if value == nil {
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Field:  key,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
