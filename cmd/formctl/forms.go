package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/muurk/formstate/internal/definition"
	"github.com/muurk/formstate/internal/ui"
)

func init() {
	formsCmd.AddCommand(formsAddCmd)
	formsCmd.AddCommand(formsListCmd)
	formsCmd.AddCommand(formsRemoveCmd)
	rootCmd.AddCommand(formsCmd)
}

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Manage registered forms",
	Long: `Register definition files under short names.

Registered names can be used wherever a form path is accepted. Only the name
and path are stored; form values never are.`,
}

var formsAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a form definition",
	Example: `  formctl forms add signup ./forms/signup.yaml
  formctl run signup`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], args[1]

		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		def, err := definition.Load(abs)
		if err != nil {
			return err
		}

		reg, save, err := openRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		reg.AddForm(name, abs)
		if err := save(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Registered %q (%d fields, %d steps) -> %s\n",
			name, len(def.Fields), def.StepCount(), abs)
		return nil
	},
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered forms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := openRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		names := reg.FormNames()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No forms registered. Use 'formctl forms add <name> <path>'.")
			return nil
		}

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			entry := reg.GetForm(name)
			opened := "never"
			if !entry.LastOpened.IsZero() {
				opened = entry.LastOpened.Format("2006-01-02 15:04")
			}
			rows = append(rows, []string{name, entry.Path, opened})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"NAME", "PATH", "LAST OPENED"}, rows))
		return nil
	},
}

var formsRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Unregister a form",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, save, err := openRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !reg.RemoveForm(args[0]) {
			return fmt.Errorf("no form named %q", args[0])
		}
		if err := save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", args[0])
		return nil
	},
}
