package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/services"
	"github.com/dmitrijs2005/urbannest/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register creates an account and its profile. The user signs in
// separately afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	roleText, err := GetTextOr(a.reader, "I am a (renter|owner)", string(models.RoleRenter), a.out)
	if err != nil {
		return err
	}
	role, err := models.ParseRole(roleText)
	if err != nil {
		return err
	}

	if _, err := a.sessions.SignUp(ctx, email, string(password), fullName, role); err != nil {
		return err
	}
	a.printf("Account created. Please sign in with your new account.\n")
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.sessions.SignIn(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			a.log.Info(ctx, "login rejected", "email", email)
		}
		return err
	}
	if p == nil {
		a.printf("Signed in, but your profile could not be loaded.\n")
		return nil
	}
	a.printf("Welcome, %s!\n", p.FullName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	a.printf("Signed out.\n")
	return nil
}

// Profile shows the signed-in profile and lets the user change it.
func (a *App) Profile(ctx context.Context) error {
	p := a.sessions.Current()
	if p == nil {
		return services.ErrLoginRequired
	}
	a.printf("%s <%s>, %s\n", p.FullName, p.Email, p.Role)

	name, err := GetTextOr(a.reader, "Full name", p.FullName, a.out)
	if err != nil {
		return err
	}
	avatar, err := GetTextOr(a.reader, "Avatar URL", p.AvatarURL, a.out)
	if err != nil {
		return err
	}
	if name == p.FullName && avatar == p.AvatarURL {
		return nil
	}
	if _, err := a.sessions.UpdateProfile(ctx, name, avatar); err != nil {
		return err
	}
	a.printf("Profile updated.\n")
	return nil
}
