package command

import (
	"strconv"

	"cbhands/internal/errors"
)

// Options is the validated, type-coerced option mapping handed to handlers.
type Options map[string]interface{}

// String returns a string option value.
func (o Options) String(name string) string {
	if v, ok := o[name].(string); ok {
		return v
	}
	return ""
}

// Int returns an int option value.
func (o Options) Int(name string) int {
	if v, ok := o[name].(int); ok {
		return v
	}
	return 0
}

// Bool returns a bool or flag option value.
func (o Options) Bool(name string) bool {
	if v, ok := o[name].(bool); ok {
		return v
	}
	return false
}

// ValidateOptions checks raw option values against the command's option
// definitions and produces the coerced mapping the handler will see.
// Guarantees, in order: unknown names are rejected, missing required options
// are rejected, supplied values are coerced per their declared type, and
// defaults fill any omitted optional values.
func ValidateOptions(def *Definition, raw map[string]string) (Options, error) {
	declared := make(map[string]OptionDefinition, len(def.Options))
	for _, opt := range def.Options {
		declared[opt.Name] = opt
	}

	for name := range raw {
		if _, ok := declared[name]; !ok {
			return nil, errors.UnknownOption(name)
		}
	}

	opts := make(Options, len(def.Options))
	for _, opt := range def.Options {
		value, supplied := raw[opt.Name]
		if !supplied {
			if opt.Required {
				return nil, errors.MissingOption(opt.Name)
			}
			opts[opt.Name] = defaultValue(opt)
			continue
		}

		coerced, err := coerceValue(opt, value)
		if err != nil {
			return nil, err
		}
		opts[opt.Name] = coerced
	}

	return opts, nil
}

func coerceValue(opt OptionDefinition, value string) (interface{}, error) {
	switch opt.Type {
	case OptionString:
		return value, nil
	case OptionInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.InvalidOption(opt.Name, value)
		}
		return n, nil
	case OptionBool, OptionFlag:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.InvalidOption(opt.Name, value)
		}
		return b, nil
	default:
		return nil, errors.InvalidOption(opt.Name, value)
	}
}

func defaultValue(opt OptionDefinition) interface{} {
	if opt.Default != nil {
		return opt.Default
	}
	switch opt.Type {
	case OptionString:
		return ""
	case OptionInt:
		return 0
	case OptionBool, OptionFlag:
		return false
	default:
		return nil
	}
}
