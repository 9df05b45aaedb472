package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xact-systems/xact/pkg/cli"
	"github.com/xact-systems/xact/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.xact/settings.json.

Settings provide defaults for flags shared by the system commands:
  - default_cfg_path: Used when --cfg-path is not specified
  - addr_delim:       Config address delimiter (--cfg-addr-delim default)
  - log_level:        Default log level for system runs
  - dirpath_log:      Directory for process log files

Examples:
  xact settings show
  xact settings set cfg_path ./examples/counter
  xact settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTable("SETTING", "VALUE")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			t.Row(name, value)
		}

		printSetting("default_cfg_path", s.DefaultCfgPath)
		printSetting("addr_delim", s.AddrDelim)
		printSetting("log_level", s.LogLevel)
		printSetting("dirpath_log", s.DirpathLog)

		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  cfg_path    - Default config file or directory (--cfg-path default)
  addr_delim  - Config address delimiter (--cfg-addr-delim default)
  log_level   - Default log level for system runs
  dirpath_log - Directory for process log files

Examples:
  xact settings set cfg_path ./examples/counter
  xact settings set log_level debug`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "cfg_path", "default_cfg_path":
			s.DefaultCfgPath = value
			fmt.Printf("Default config path set to: %s\n", value)
		case "addr_delim":
			s.AddrDelim = value
			fmt.Printf("Config address delimiter set to: %s\n", value)
		case "log_level":
			s.LogLevel = value
			fmt.Printf("Log level set to: %s\n", value)
		case "dirpath_log":
			s.DirpathLog = value
			fmt.Printf("Log directory set to: %s\n", value)
		default:
			return fmt.Errorf("unknown setting: %s (valid: cfg_path, addr_delim, log_level, dirpath_log)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}

		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]

		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		var value string
		switch setting {
		case "cfg_path", "default_cfg_path":
			value = s.DefaultCfgPath
		case "addr_delim":
			value = s.AddrDelim
		case "log_level":
			value = s.LogLevel
		case "dirpath_log":
			value = s.DirpathLog
		default:
			return fmt.Errorf("unknown setting: %s (valid: cfg_path, addr_delim, log_level, dirpath_log)", setting)
		}

		if value == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}
