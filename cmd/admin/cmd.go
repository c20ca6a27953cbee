package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
)

var errHelp = errors.New("help provided")

type accountService interface {
	CreateAdmin(ctx context.Context, req dto.CreateAdminRequest) (*models.Admin, error)
	ResetPassword(ctx context.Context, username, password string) error
}

type commandLine struct {
	accounts     accountService
	migrate      func(command string) error
	readPassword func(fd int) ([]byte, error)
	out          io.Writer
}

func newCommandLine(accounts accountService, migrate func(string) error, out io.Writer) *commandLine {
	return &commandLine{accounts: accounts, migrate: migrate, readPassword: term.ReadPassword, out: out}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate up|down|status                                      - apply, roll back or list migrations")
	fmt.Fprintln(cli.out, "  createadmin -username U -first-name F -last-name L [-email E] - create an administrator")
	fmt.Fprintln(cli.out, "  resetpassword -username U                                   - reset a user's password")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if err := cli.migrate(args[2]); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "migrate %s: done\n", args[2])
		return nil
	case "createadmin":
		return cli.createAdmin(ctx, args[2:])
	case "resetpassword":
		return cli.resetPassword(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) createAdmin(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	username := cmd.String("username", "", "login of the new admin")
	firstName := cmd.String("first-name", "", "first name")
	lastName := cmd.String("last-name", "", "last name")
	email := cmd.String("email", "", "optional email")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *username == "" || *firstName == "" || *lastName == "" {
		cmd.Usage()
		return errHelp
	}

	password, err := cli.promptPassword()
	if err != nil {
		return err
	}
	admin, err := cli.accounts.CreateAdmin(ctx, dto.CreateAdminRequest{
		Username:  *username,
		Password:  password,
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "admin %s created (user_id=%d, admin_id=%d)\n", *username, admin.UserID, admin.AdminID)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	username := cmd.String("username", "", "the user's login; the password is prompted next")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		cmd.Usage()
		return errHelp
	}

	password, err := cli.promptPassword()
	if err != nil {
		return err
	}
	if err := cli.accounts.ResetPassword(ctx, *username, password); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s updated\n", *username)
	return nil
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := cli.readPassword(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errors.New("empty password")
	}
	return string(pwd), nil
}
