// Package cli implements gamestarter-cli, the operator tool for producing
// and checking password digests and for creating accounts directly against
// the database.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server"
	"github.com/dmitrijs2005/gamestarter/internal/server/config"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/passwords"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gamestarter/internal/server/services"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMismatch       = errors.New("password does not match digest")
)

// UserCreator is the part of the directory the tool needs.
type UserCreator interface {
	Create(ctx context.Context, in models.NewUser) (*models.Identity, error)
}

type App struct {
	config *config.Config
	reader *bufio.Reader
	out    io.Writer
	codec  passwords.Codec

	// openDirectory connects to the database; the returned func releases it.
	openDirectory func(ctx context.Context) (UserCreator, func(), error)
}

func NewApp(c *config.Config) *App {
	a := &App{
		config: c,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		codec:  passwords.NewBcryptCodec(c.BcryptCost, logging.NopLogger{}),
	}
	a.openDirectory = a.connect
	return a
}

func (a *App) connect(ctx context.Context) (UserCreator, func(), error) {
	logger := logging.NewJSONLogger(os.Stderr, a.config.LogLevel)
	rm := repomanager.NewPostgresRepositoryManager()

	db, err := server.OpenDB(ctx, a.config, rm)
	if err != nil {
		return nil, nil, err
	}

	dir := services.NewDirectoryService(db, rm, a.codec, logger)
	return dir, func() { _ = db.Close() }, nil
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: gamestarter-cli <command> [flags]")
	fmt.Fprintln(a.out, "commands: hash, check, create-user, help")
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUnknownCommand
	}

	switch args[0] {
	case "hash":
		return a.hash()
	case "check":
		return a.check()
	case "create-user":
		return a.createUser(ctx)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
}
