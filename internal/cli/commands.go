package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
)

func (a *App) hash() error {
	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	digest, err := a.codec.Hash(string(pw))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, digest)
	return nil
}

func (a *App) check() error {
	digest, err := a.GetText("Stored digest")
	if err != nil {
		return err
	}

	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if !a.codec.Verify(string(pw), digest) {
		fmt.Fprintln(a.out, "no match")
		return ErrMismatch
	}

	fmt.Fprintln(a.out, "match")
	return nil
}

func (a *App) createUser(ctx context.Context) error {
	var in models.NewUser
	var err error

	if in.Name, err = a.GetText("Name"); err != nil {
		return err
	}
	if in.Email, err = a.GetText("Email"); err != nil {
		return err
	}
	if in.Nickname, err = a.GetText("Nickname"); err != nil {
		return err
	}

	profile, err := a.GetText(fmt.Sprintf("Profile id (empty for %d)", common.DefaultProfileID))
	if err != nil {
		return err
	}
	if profile != "" {
		if in.ProfileID, err = strconv.ParseInt(profile, 10, 64); err != nil {
			return fmt.Errorf("%w: profile id must be a number", common.ErrorValidation)
		}
	}

	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(pw) != string(confirm) {
		return errors.New("passwords do not match")
	}
	in.Password = string(pw)

	dir, release, err := a.openDirectory(ctx)
	if err != nil {
		return err
	}
	defer release()

	identity, err := dir.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "created user id=%d email=%s\n", identity.ID, identity.Email)
	return nil
}

// GetText prompts for one line of input.
func (a *App) GetText(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}
