package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.userName)
}

// Root reads commands until exit or end of input.
func (a *App) Root(ctx context.Context) error {

	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")

	for {
		fmt.Fprintf(a.out, "gophauth %s> ", a.getStatus())

		line, err := a.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var cmdErr error
		switch parts[0] {
		case "help":
			if a.client.LoggedIn() {
				fmt.Fprintln(a.out, "Available commands: me, refresh, ping, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: signup, login, ping, exit")
			}
		case "signup", "register":
			cmdErr = a.Signup(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "me":
			cmdErr = a.Me(ctx)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "ping":
			cmdErr = a.Ping(ctx)
		case "logout":
			a.Logout()
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown command:", parts[0])
		}

		if cmdErr != nil {
			fmt.Fprintln(a.out, "Error:", cmdErr.Error())
		}
	}
}
