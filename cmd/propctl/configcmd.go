package main

import (
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vango-dev/prop/internal/config"
	"github.com/vango-dev/prop/internal/errors"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and edit propctl.json",
	}
	cmd.AddCommand(configInitCmd(), configAddPropCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default propctl.json",
		Long: `Write a propctl.json with default settings.

Examples:
  propctl config init
  propctl config init ./deploy --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path, err := initConfig(dir, force)
			if err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func initConfig(dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.ConfigFileName)
	if config.Exists(dir) && !force {
		return "", errors.New("E123").WithDetailf("%s", path)
	}
	if err := config.New().SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

func configAddPropCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "add-prop name:type=value...",
		Short: "Add or replace properties in propctl.json",
		Long: `Add properties to the "properties" section of propctl.json.
A property with the same name is replaced.

Examples:
  propctl config add-prop port:int=8080
  propctl config add-prop label:string=main ratio:double=0.5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Path() == "" {
				return errors.New("E121").WithSuggestion("Run `propctl config init` first")
			}
			if err := addProps(cfg, args); err != nil {
				return err
			}
			success("Updated %s", cfg.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to propctl.json")

	return cmd
}

// addProps merges the flags into cfg, validates it and saves it back.
func addProps(cfg *config.Config, flags []string) error {
	for _, raw := range flags {
		f, err := parsePropFlag(raw)
		if err != nil {
			return err
		}
		p := config.PropertyConfig{Name: f.Name, Type: f.Type, Value: f.Value}
		i := slices.IndexFunc(cfg.Properties, func(c config.PropertyConfig) bool { return c.Name == f.Name })
		if i >= 0 {
			cfg.Properties[i] = p
		} else {
			cfg.Properties = append(cfg.Properties, p)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.Save()
}
