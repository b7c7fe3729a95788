package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hotaru-ritsuki/course-api-sub000/core"
	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

// addUser updates or creates a user.User. The only way to mint instructor and
// admin accounts besides an admin role change through the service layer.
func (cli *commandLine) addUser(email, first, last, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	exists := true
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		exists = false
		usr = user.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}
	if first != "" {
		usr.FirstName = first
	}
	if last != "" {
		usr.LastName = last
	}
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}

// resetPassword sets a new password for the user with the given email.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
