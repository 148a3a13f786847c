package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"cbhands/internal/command"
	"cbhands/internal/errors"
)

// mountCommand projects a plugin command definition into a cobra command.
// Flags mirror the definition's options; defaults and type coercion stay
// with the dispatcher, so only flags the user actually set are forwarded.
func (m *Manager) mountCommand(def *command.Definition) *cobra.Command {
	cmd := &cobra.Command{
		Use:   def.Name,
		Short: def.Description,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make(map[string]string)
			for _, opt := range def.Options {
				if !cmd.Flags().Changed(opt.Name) {
					continue
				}
				flag := cmd.Flags().Lookup(opt.Name)
				raw[opt.Name] = flag.Value.String()
			}

			result := m.dispatcher.Execute(cmd.Context(), command.Invocation{
				Group:   def.Group,
				Command: def.Name,
				Options: raw,
			})
			return renderResult(result)
		},
	}

	for _, opt := range def.Options {
		addFlag(cmd, opt)
	}

	return cmd
}

// addFlag registers one option as a cobra flag. Defaults shown in help come
// from the definition; actual default filling happens during validation.
func addFlag(cmd *cobra.Command, opt command.OptionDefinition) {
	usage := opt.Description
	if opt.Required {
		usage += " (required)"
	}

	switch opt.Type {
	case command.OptionInt:
		def := 0
		if v, ok := opt.Default.(int); ok {
			def = v
		}
		cmd.Flags().Int(opt.Name, def, usage)
	case command.OptionBool, command.OptionFlag:
		def := false
		if v, ok := opt.Default.(bool); ok {
			def = v
		}
		cmd.Flags().Bool(opt.Name, def, usage)
	default:
		def := ""
		if opt.Default != nil {
			def = fmt.Sprintf("%v", opt.Default)
		}
		cmd.Flags().String(opt.Name, def, usage)
	}
}

// renderResult prints a command result and converts failures into the
// process's error contract: success prints to stdout and returns nil,
// failure prints to stderr and returns the underlying error so main can
// derive the exit code.
func renderResult(result *command.Result) error {
	if result.Success {
		if result.Message != "" {
			fmt.Println(result.Message)
		}
		return nil
	}

	if result.Message != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Message)
	}
	if result.Err != nil {
		return result.Err
	}
	return errors.New(errors.ErrInternal, "command failed")
}

// formatDefault renders an option default for the plugin info listing.
func formatDefault(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
