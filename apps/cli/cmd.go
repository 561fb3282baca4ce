package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
	"github.com/EduardoBullon/SEM16-PC04/services/backend"
)

const requestTimeout = 30 * time.Second

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	sessions *session.Store
	client   *backend.Client
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME - log in and keep the session (the password will be prompted)")
	fmt.Fprintln(cli.out, "  logout                   - drop the stored session")
	fmt.Fprintln(cli.out, "  whoami [-verify]         - show the stored session, optionally checking it with the backend")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	loginUname := loginCmd.String("username", "", "The username. The password will be prompted next.")

	whoamiCmd := flag.NewFlagSet("whoami", flag.ContinueOnError)
	whoamiCmd.SetOutput(cli.out)
	whoamiVerify := whoamiCmd.Bool("verify", false, "Ask the backend whether the stored credential is still valid.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginUname, string(pwd))
	case "logout":
		return cli.logout()
	case "whoami":
		if err := whoamiCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.whoami(*whoamiVerify)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(uname, pwd string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	identity, err := cli.client.Auth.Login(ctx, user.Credentials{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "logged in as %s (%s)\n", identity.Username, identity.CanonicalRole())
	return nil
}

func (cli *commandLine) logout() error {
	cli.client.Auth.Logout()
	fmt.Fprintln(cli.out, "logged out")
	return nil
}

func (cli *commandLine) whoami(verify bool) error {
	snap := cli.sessions.Snapshot()
	if !snap.Authenticated() {
		fmt.Fprintln(cli.out, "not logged in")
		return nil
	}

	if verify {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ok, err := cli.client.Auth.Verify(ctx, snap.Credential)
		if err != nil {
			return err
		}
		if !ok {
			cli.sessions.Logout()
			fmt.Fprintln(cli.out, "session expired, please log in again")
			return nil
		}
	}

	if id := snap.Identity; id != nil {
		fmt.Fprintf(cli.out, "user:    %s <%s>\n", id.Username, id.Email)
		fmt.Fprintf(cli.out, "role:    %s\n", id.CanonicalRole())
	}
	if exp, ok := session.TokenExpiry(snap.Credential); ok {
		fmt.Fprintf(cli.out, "expires: %s\n", exp.Format(time.RFC3339))
	}
	return nil
}
