package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sharemouse/internal/config"
)

var templateConfig string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a starter config file",
	Long: `Write a starter config file. The format follows the extension:
.toml and .json are honoured, anything else is written as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(templateConfig)
		if err != nil {
			return err
		}
		if err := config.WriteTemplate(path); err != nil {
			return err
		}
		log.Printf("Template config created at %s", path)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVarP(&templateConfig, "config", "c", "", "Where to write the config (default: per-user config path)")
}
