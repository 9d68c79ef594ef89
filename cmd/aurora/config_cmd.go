package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-aurora/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "inspect the effective configuration",
	}
	// the run flags also shape the effective config
	cmd.PersistentFlags().StringVar(&driver, "driver", "", "output driver: spi | console | sim")
	cmd.PersistentFlags().IntVar(&fps, "fps", 0, "target frames per second")
	cmd.PersistentFlags().Uint8Var(&brightness, "brightness", 0, "output brightness cap 0..255")

	dump := &cobra.Command{
		Use:   "dump [path]",
		Short: "write the effective config as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := config.Save(args[0], cfg); err != nil {
					return err
				}
				log.Info().Str("path", args[0]).Msg("config written")
				return nil
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check the effective config and list findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			issues, err := cfg.Validate()
			for _, d := range issues {
				fmt.Println(d.String())
			}
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d LEDs outer, %d inner, %d ms per frame\n",
				cfg.Rings.Primary.Count, cfg.Rings.Secondary.Count, cfg.FrameBudgetMs())
			return nil
		},
	}

	cmd.AddCommand(dump, validateCmd)
	return cmd
}
