// Package cli is the interactive front end of the gophauth client.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/authrpc"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// AuthClient is the subset of client.GRPCClient the commands use.
type AuthClient interface {
	Signup(ctx context.Context, email, password string) (*authrpc.UserReply, error)
	Login(ctx context.Context, email, password string) (*authrpc.LoginReply, error)
	Refresh(ctx context.Context) (*authrpc.RefreshReply, error)
	Me(ctx context.Context) (*authrpc.UserReply, error)
	Ping(ctx context.Context) error
	LoggedIn() bool
	Logout()
	Close() error
}

type App struct {
	client   AuthClient
	timeout  time.Duration
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(apiClient, c.RequestTimeout, os.Stdin, os.Stdout), nil
}

func newApp(c AuthClient, timeout time.Duration, in io.Reader, out io.Writer) *App {
	return &App{client: c, timeout: timeout, reader: bufio.NewReader(in), out: out}
}

// Run starts the REPL and closes the connection when it ends.
func (a *App) Run(ctx context.Context) error {
	defer a.client.Close()
	return a.Root(ctx)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
