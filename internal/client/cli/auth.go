package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studymatch/internal/client/api"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/metadata"
)

// getSimpleText and getPassword point to the interactive input helpers and
// are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for email, name and password and creates the account.
// It does not log in.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	_, err = a.api.Signup(ctx, email, string(password), name)
	a.track(err)
	if err != nil {
		return err
	}

	a.println("Account created, you can log in now.")
	return nil
}

// Login prompts for credentials, offering the last used email as the
// default, and keeps the session for later commands.
func (a *App) Login(ctx context.Context) error {
	last, err := a.metadata.Get(ctx, metadata.KeyLastEmail)
	if err != nil {
		return err
	}

	prompt := "Enter email"
	if last != "" {
		prompt = fmt.Sprintf("Enter email [%s]", last)
	}
	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if email == "" {
		email = last
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	user, err := a.api.Login(ctx, email, string(password))
	a.track(err)
	if err != nil {
		if errors.Is(err, api.ErrRateLimited) {
			return errors.New("too many login attempts, try again later")
		}
		return err
	}

	a.user = user
	if err := a.metadata.Set(ctx, metadata.KeyLastEmail, email); err != nil {
		return err
	}

	if room, err := a.metadata.Get(ctx, metadata.KeyLastRoom); err == nil && room != "" {
		a.room = room
	}

	a.printf("Logged in as %s\n", user.Name)
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	a.track(err)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			a.user = nil
			a.println("Not logged in")
			return nil
		}
		return err
	}
	a.user = user
	a.printf("%s <%s> id=%s\n", user.Name, user.Email, user.ID)
	return nil
}

// Logout drops the session and the locally cached history.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.track(err)

	a.user = nil
	a.room = ""

	if cerr := a.cache.Clear(ctx); cerr != nil {
		return cerr
	}
	if cerr := a.metadata.Delete(ctx, metadata.KeyLastRoom); cerr != nil {
		return cerr
	}
	if err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}
