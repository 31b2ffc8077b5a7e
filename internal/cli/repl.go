package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phloxxx/user-management-system/internal/client"
)

// executor is the command surface used by the REPL.
type executor interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Login(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Departments(ctx context.Context) error
	AddDepartment(ctx context.Context) error
	Employees(ctx context.Context) error
	AddEmployee(ctx context.Context) error
	Transfer(ctx context.Context) error
	Requests(ctx context.Context) error
	AddRequest(ctx context.Context) error
	Decide(ctx context.Context, status string) error
	Workflows(ctx context.Context) error
	Onboardings(ctx context.Context) error
}

const (
	guestHelp  = "Available commands: register, verify, login, forgot, reset, exit"
	memberHelp = "Available commands: whoami, departments, adddept, employees, addemp, transfer, " +
		"requests, addreq, approve, reject, workflows, onboardings, logout, exit"
)

// runREPL reads one command per line and dispatches it. Command errors are
// printed and the loop continues. It returns on EOF, exit or quit.
func runREPL(ctx context.Context, a executor, status func() string, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "hr [%s]> ", status())
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			fmt.Fprintln(out)
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		cmd := strings.ToLower(fields[0])
		if cmd == "exit" || cmd == "quit" {
			return
		}
		if cmdErr := dispatch(ctx, a, cmd, out); cmdErr != nil {
			fmt.Fprintf(out, "Error: %s\n", describe(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a executor, cmd string, out io.Writer) error {
	if cmd == "help" {
		if a.isLoggedIn() {
			fmt.Fprintln(out, memberHelp)
		} else {
			fmt.Fprintln(out, guestHelp)
		}
		return nil
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "register":
			return a.Register(ctx)
		case "verify":
			return a.Verify(ctx)
		case "login":
			return a.Login(ctx)
		case "forgot":
			return a.ForgotPassword(ctx)
		case "reset":
			return a.ResetPassword(ctx)
		}
		return fmt.Errorf("unknown command %q, type help", cmd)
	}

	switch cmd {
	case "whoami":
		return a.WhoAmI(ctx)
	case "departments", "depts":
		return a.Departments(ctx)
	case "adddept":
		return a.AddDepartment(ctx)
	case "employees", "emps":
		return a.Employees(ctx)
	case "addemp":
		return a.AddEmployee(ctx)
	case "transfer":
		return a.Transfer(ctx)
	case "requests", "reqs":
		return a.Requests(ctx)
	case "addreq":
		return a.AddRequest(ctx)
	case "approve":
		return a.Decide(ctx, "Approved")
	case "reject":
		return a.Decide(ctx, "Rejected")
	case "workflows":
		return a.Workflows(ctx)
	case "onboardings":
		return a.Onboardings(ctx)
	case "logout":
		return a.Logout(ctx)
	}
	return fmt.Errorf("unknown command %q, type help", cmd)
}

// describe turns client errors into a single line for the terminal.
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
