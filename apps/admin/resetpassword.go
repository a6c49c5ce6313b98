package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/plataforma-apa/apa/core/perfil"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset an account's password; the new password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				_ = cmd.Help()
				return errHelp
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			return cli.resetPassword(email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The account e-mail")
	return cmd
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	p, err := cli.perfilSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	up := perfil.UpdatePerfil{Password: pwd, PasswordConfirm: pwd}
	if err = up.Validate(p, cli.validate); err != nil {
		return cli.translate(err)
	}
	if _, err = cli.perfilSvc.Update(ctx, p, up); err != nil {
		return err
	}
	cli.printf("password updated for %s\n", p.Email)
	return nil
}
