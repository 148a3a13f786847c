package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cbhands/internal/errors"
	"cbhands/internal/plugin"
)

// pluginCommands creates the plugin inspection commands.
func pluginCommands(registry *plugin.Registry) []*cobra.Command {
	commands := []*cobra.Command{}

	// cbhands plugin list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPlugins(registry)
		},
	}
	commands = append(commands, listCmd)

	// cbhands plugin info <name>
	infoCmd := &cobra.Command{
		Use:   "info <plugin-name>",
		Short: "Show a plugin's metadata and commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pluginInfo(registry, args[0])
		},
	}
	commands = append(commands, infoCmd)

	return commands
}

func listPlugins(registry *plugin.Registry) error {
	plugins := registry.ListPlugins()
	if len(plugins) == 0 {
		fmt.Println("No plugins loaded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION\tDEPENDS ON")
	for _, meta := range plugins {
		deps := "-"
		if len(meta.Dependencies) > 0 {
			deps = strings.Join(meta.Dependencies, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", meta.Name, meta.Version, meta.Description, deps)
	}
	return w.Flush()
}

func pluginInfo(registry *plugin.Registry, name string) error {
	reg, ok := registry.Get(name)
	if !ok {
		return errors.NewWithDetails(errors.ErrCommandNotFound, "plugin not loaded", name)
	}

	fmt.Printf("Name:        %s\n", reg.Meta.Name)
	fmt.Printf("Version:     %s\n", reg.Meta.Version)
	fmt.Printf("Description: %s\n", reg.Meta.Description)
	if len(reg.Meta.Dependencies) > 0 {
		fmt.Printf("Depends on:  %s\n", strings.Join(reg.Meta.Dependencies, ", "))
	}

	if len(reg.Commands) == 0 {
		return nil
	}

	fmt.Println("\nCommands:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, def := range reg.Commands {
		fmt.Fprintf(w, "  %s\t%s\n", def.Path(), def.Description)
		for _, opt := range def.Options {
			required := ""
			if opt.Required {
				required = " (required)"
			}
			fmt.Fprintf(w, "    --%s\t%s %s, default %s%s\n",
				opt.Name, opt.Description, opt.Type, formatDefault(opt.Default), required)
		}
	}
	return w.Flush()
}
