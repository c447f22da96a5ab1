package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core"
	"github.com/scholium-app/scholium/core/user"
)

// addAdmin promotes an existing account to admin, or creates a new one.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err == nil {
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		if err = cli.usrRepo.SetPasswordHash(ctx, usr.ID, usr.PasswordHash, now); err != nil {
			return err
		}
		return cli.usrRepo.SetRole(ctx, usr.ID, user.RoleAdmin, now)
	}
	if errors.Cause(err) != user.ErrNotFound {
		return err
	}

	usr = user.User{
		Email:         email,
		Name:          name,
		Role:          user.RoleAdmin,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.CreateUser(ctx, usr)
	return err
}
