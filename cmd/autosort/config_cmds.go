package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autosort/internal/rules"
)

func configCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the extension rule file",
	}

	cmd.AddCommand(configSetCmd(flags))
	cmd.AddCommand(configRmCmd(flags))
	cmd.AddCommand(configListCmd(flags))
	cmd.AddCommand(configImportCmd(flags))

	return cmd
}

// loadRules resolves the rule file location from the settings file.
func loadRules(flags *rootFlags) (rules.Map, string, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, "", err
	}
	path := cfg.RulesPath()
	m, err := rules.Load(path)
	if err != nil {
		return nil, "", err
	}
	return m, path, nil
}

func configSetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set EXTENSION DIRECTORY",
		Short: "Map an extension to a destination directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadRules(flags)
			if err != nil {
				return err
			}
			if err := m.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := rules.Save(path, m); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", rules.NormalizeExt(args[0]), m[rules.NormalizeExt(args[0])])
			return nil
		},
	}
}

func configRmCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm EXTENSION...",
		Short: "Remove extension mappings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadRules(flags)
			if err != nil {
				return err
			}
			for _, ext := range args {
				if m.Remove(ext) {
					fmt.Printf("removed %s\n", rules.NormalizeExt(ext))
				} else {
					fmt.Printf("no rule for %s\n", rules.NormalizeExt(ext))
				}
			}
			return rules.Save(path, m)
		},
	}
}

func configListCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [EXTENSION...]",
		Short: "List extension mappings (all by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadRules(flags)
			if err != nil {
				return err
			}

			selected := m
			if len(args) > 0 {
				selected = rules.Map{}
				for _, ext := range args {
					norm := rules.NormalizeExt(ext)
					if dir, ok := m[norm]; ok {
						selected[norm] = dir
					}
				}
			}

			if jsonOutput {
				return writeJSON(cmd, selected)
			}

			var rows [][]string
			for _, ext := range selected.Extensions() {
				rows = append(rows, []string{ext, selected[ext]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"extension", "destination"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func configImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.json",
		Short: "Merge a JSON rule fragment into the rule file",
		Long:  "Import merges extension mappings from FILE.json into the rule file. Entries in the fragment win over existing ones.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadRules(flags)
			if err != nil {
				return err
			}
			if err := m.Merge(args[0]); err != nil {
				return err
			}
			if err := rules.Save(path, m); err != nil {
				return err
			}
			fmt.Printf("imported %s (%d rules total)\n", args[0], len(m))
			return nil
		},
	}
}

func locationsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Print the locations of the settings, rules, journal and socket files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"settings", flags.configPath},
				{"rules", cfg.RulesPath()},
				{"journal", cfg.DBPath()},
				{"socket", cfg.SocketPath()},
				{"lock", cfg.LockPath()},
			}
			if cfg.LogFile != "" {
				rows = append(rows, []string{"log", cfg.LogFile})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"file", "path"}, rows, nil))
			return nil
		},
	}
}
