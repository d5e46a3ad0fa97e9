package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docportal/internal/locale"
)

func newLangCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: "Show or change the preferred display language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := a.locale.Current()
			if err != nil {
				return err
			}
			for _, l := range locale.Languages {
				marker := " "
				if l.Code == cur.Code {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", marker, l.Flag, l.Code, l.Name)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set CODE",
		Short: "Select pt-BR, en-US or es-ES",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.locale.Select(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Language set to %s %s\n", l.Flag, l.Name)
			return nil
		},
	})
	return cmd
}
