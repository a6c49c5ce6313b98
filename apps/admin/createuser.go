package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plataforma-apa/apa/core/perfil"
)

func (cli *commandLine) createUserCmd() *cobra.Command {
	var np perfil.NewPerfil
	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create an account (auth user + perfil); the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if np.Email == "" || np.Nombre == "" {
				_ = cmd.Help()
				return errHelp
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			np.Password, np.PasswordConfirm = pwd, pwd
			return cli.createUser(np)
		},
	}
	cmd.Flags().StringVar(&np.Email, "email", "", "The account e-mail")
	cmd.Flags().StringVar(&np.Nombre, "nombre", "", "The account full name")
	cmd.Flags().StringVar(&np.Rol, "rol", perfil.RoleAdmin, "One of "+strings.Join(perfil.AllRoles, "|"))
	cmd.Flags().StringVar(&np.Telefono, "telefono", "", "Phone number")
	cmd.Flags().StringVar(&np.ZonaID, "zona", "", "Zona id")
	return cmd
}

func (cli *commandLine) createUser(np perfil.NewPerfil) error {
	if err := np.Validate(cli.validate); err != nil {
		return cli.translate(err)
	}
	p, err := cli.perfilSvc.Create(context.Background(), np)
	if err != nil {
		return cli.translate(err)
	}
	cli.printf("created %s <%s> (%s): %s\n", p.Nombre, p.Email, p.Rol, p.ID)
	return nil
}
