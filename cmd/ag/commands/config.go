package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/jsonschema"
)

func newConfigCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "config",
		Summary: "Read and change the ag configuration",
		Subcommands: []*command.Subcommand{
			app.subcommand("config", app.newConfigGetCmd),
			app.subcommand("config", app.newConfigSetCmd),
			app.subcommand("config", app.newConfigListCmd),
			app.subcommand("config", app.newConfigResetCmd),
			app.subcommand("config", app.newConfigSchemaCmd),
			app.subcommand("config", app.newConfigImportCmd),
		},
	}, nil
}

func (a *App) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			val, ok := a.Store.Get(args[0])
			if !ok {
				return command.ArgErrorf("unknown config key %q", args[0])
			}
			return printValue(cmd, val)
		},
	}
}

func (a *App) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in the configuration file",
		Long: `Set a key in the configuration file. The value is parsed as YAML, so
lists can be given as "[a, b]". Keys whose default is a string keep the
value verbatim.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Store.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.Store.Save(); err != nil {
				return err
			}
			a.Log.Info("config updated", "key", args[0], "file", a.Store.Path())
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
}

func (a *App) newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every key with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, key := range a.Store.Keys() {
				val, _ := a.Store.Get(key)
				fmt.Fprintf(out, "%s = %s\n", key, inline(val))
			}
			return nil
		},
	}
}

func (a *App) newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Overwrite the configuration file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.Store.Reset(); err != nil {
				return err
			}
			if err := a.Store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration reset to defaults in %s\n", a.Store.Path())
			return nil
		},
	}
}

func (a *App) newConfigSchemaCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate JSON Schema for the configuration file",
		Long: `Generate a JSON Schema that can be used for IDE autocomplete and validation
of agentic_config.yaml.

Reference it from the top of the file with:

  # yaml-language-server: $schema=./agentic_config.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schemaBytes, err := jsonschema.Generate()
			if err != nil {
				return fmt.Errorf("generating schema: %w", err)
			}

			if outputFile != "" {
				if dir := filepath.Dir(outputFile); dir != "." {
					if err := os.MkdirAll(dir, 0o750); err != nil {
						return fmt.Errorf("creating directory %s: %w", dir, err)
					}
				}
				if err := os.WriteFile(outputFile, schemaBytes, 0o600); err != nil {
					return fmt.Errorf("writing schema: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "JSON Schema written to %s\n", outputFile)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schemaBytes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func (a *App) newConfigImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>",
		Short: "Merge a YAML document from a URL or file into the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if !strings.Contains(src, "://") {
				abs, err := filepath.Abs(src)
				if err != nil {
					return err
				}
				src = "file://" + abs
			}
			if err := a.Store.Import(cmd.Context(), src); err != nil {
				return err
			}
			if err := a.Store.Save(); err != nil {
				return err
			}
			a.Log.Info("config imported", "source", src)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %s\n", args[0], a.Store.Path())
			return nil
		},
	}
}

// printValue writes scalars bare and nested values as YAML.
func printValue(cmd *cobra.Command, val any) error {
	switch val.(type) {
	case map[string]any, []any:
		out, err := yaml.Marshal(val)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), val)
	}
	return nil
}

func inline(val any) string {
	switch v := val.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
