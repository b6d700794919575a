// Copyright (C) 2026  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/lukasdietrich/briefbote/internal/models"
	"github.com/lukasdietrich/briefbote/internal/tenants"
)

type shellCommand struct {
	Directory *tenants.Directory
}

func (s *shellCommand) run(ctx context.Context) error {
	shell := ishell.New()
	s.setupShell(ctx, shell)
	shell.Run()

	return nil
}

func (s *shellCommand) setupShell(ctx context.Context, shell *ishell.Shell) {
	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "tenants",
			Help: "manage tenants",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list all tenants",
				Func: wrapShellFunc(ctx, s.tenantsList),
			},
			{
				Name: "add",
				Help: "add a new tenant and print its api key",
				Func: wrapShellFunc(ctx, s.tenantsAdd),
			},
			{
				Name: "activate",
				Help: "allow a tenant to send emails",
				Func: wrapShellFunc(ctx, s.tenantsSetActive(true)),
			},
			{
				Name: "deactivate",
				Help: "reject all emails of a tenant",
				Func: wrapShellFunc(ctx, s.tenantsSetActive(false)),
			},
			{
				Name: "rekey",
				Help: "encrypt all smtp passwords with the primary secret key",
				Func: wrapShellFunc(ctx, s.tenantsRekey),
			},
		},
	))
}

func (s *shellCommand) tenantsList(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: tenants list")
	}

	list, err := s.Directory.List(ctx)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Tenants:\n", len(list))
	for _, tenant := range list {
		ctx.printf("\t%d\t%q\t%s\t%s:%d\tactive=%v\n",
			tenant.ID, tenant.Name, tenant.MailFrom, tenant.SMTPHost, tenant.SMTPPort, tenant.Active)
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) tenantsAdd(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: tenants add [NAME]")
	}

	var (
		tenant = models.TenantEntity{
			Name:          ctx.arg(0),
			Active:        true,
			ValidateCerts: true,
		}
		err error
	)

	from, err := ctx.ask("Sender address", false)
	if err != nil {
		return err
	}

	if tenant.MailFrom, err = models.ParseUnicode(from); err != nil {
		return err
	}

	if tenant.SMTPHost, err = ctx.ask("SMTP host", false); err != nil {
		return err
	}

	if tenant.SMTPPort, err = ctx.askInt("SMTP port"); err != nil {
		return err
	}

	if tenant.ImplicitTLS, err = ctx.askBool("Implicit TLS"); err != nil {
		return err
	}

	if !tenant.ImplicitTLS {
		if tenant.StartTLS, err = ctx.askBool("STARTTLS"); err != nil {
			return err
		}
	}

	if tenant.UseCredentials, err = ctx.askBool("Authenticate"); err != nil {
		return err
	}

	var password string

	if tenant.UseCredentials {
		if tenant.SMTPUsername, err = ctx.ask("SMTP username", false); err != nil {
			return err
		}

		if password, err = ctx.ask("SMTP password", true); err != nil {
			return err
		}
	}

	apiKey, err := s.Directory.Create(ctx, &tenant, password)
	if err != nil {
		return err
	}

	ctx.printf("\n\tTenant %q added with id %d.\n", tenant.Name, tenant.ID)
	ctx.printf("\tApi key (shown only once): %s\n\n", apiKey)
	return nil
}

func (s *shellCommand) tenantsSetActive(active bool) func(shellContext) error {
	return func(ctx shellContext) error {
		if !ctx.checkArgs(1) {
			if active {
				return errors.New("Usage: tenants activate [ID]")
			}

			return errors.New("Usage: tenants deactivate [ID]")
		}

		id, err := strconv.ParseInt(ctx.arg(0), 10, 64)
		if err != nil {
			return err
		}

		if err := s.Directory.SetActive(ctx, id, active); err != nil {
			return err
		}

		ctx.printf("\n\tTenant %d updated (active=%v).\n\n", id, active)
		return nil
	}
}

func (s *shellCommand) tenantsRekey(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: tenants rekey")
	}

	n, err := s.Directory.Rekey(ctx)
	if err != nil {
		return err
	}

	ctx.printf("\n\t%d tenants re-encrypted.\n\n", n)
	return nil
}

type shellContext struct {
	context.Context
	shell *ishell.Context
}

func (c shellContext) checkArgs(n int) bool {
	return len(c.shell.Args) == n
}

func (c shellContext) arg(i int) string {
	return c.shell.Args[i]
}

func (c shellContext) printf(format string, v ...interface{}) {
	c.shell.Printf(format, v...)
}

func (c shellContext) ask(prompt string, hide bool) (string, error) {
	c.printf("%s: ", prompt)

	if hide {
		return c.shell.ReadPasswordErr()
	}

	line, err := c.shell.ReadLineErr()
	return strings.TrimSpace(line), err
}

func (c shellContext) askInt(prompt string) (int, error) {
	line, err := c.ask(prompt, false)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(line)
}

func (c shellContext) askBool(prompt string) (bool, error) {
	line, err := c.ask(prompt+" [y/N]", false)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func composeShellCmd(cmd ishell.Cmd, children []*ishell.Cmd) *ishell.Cmd {
	for _, child := range children {
		cmd.AddCmd(child)
	}

	return &cmd
}

func wrapShellFunc(ctx context.Context, fn func(shellContext) error) func(*ishell.Context) {
	return func(shell *ishell.Context) {
		if err := fn(shellContext{Context: ctx, shell: shell}); err != nil {
			shell.Err(err)
		}
	}
}
