package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/phloxxx/user-management-system/internal/client"
)

/** ACCOUNT */

func (a *App) Register(ctx context.Context) error {
	var in client.RegisterRequest
	var err error
	if in.Title, err = promptRequired(a.reader, a.out, "Title"); err != nil {
		return err
	}
	if in.FirstName, err = promptRequired(a.reader, a.out, "First name"); err != nil {
		return err
	}
	if in.LastName, err = promptRequired(a.reader, a.out, "Last name"); err != nil {
		return err
	}
	if in.Email, err = promptRequired(a.reader, a.out, "Email"); err != nil {
		return err
	}
	if in.Password, err = promptPassword(a.out, "Password"); err != nil {
		return err
	}
	if in.ConfirmPassword, err = promptPassword(a.out, "Confirm password"); err != nil {
		return err
	}
	in.AcceptTerms = true

	msg, err := a.client.Accounts.Register(ctx, in)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	token, err := promptRequired(a.reader, a.out, "Verification token")
	if err != nil {
		return err
	}
	if err := a.client.Accounts.VerifyEmail(ctx, token); err != nil {
		return err
	}
	a.println("Email verified, you can now login")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := promptRequired(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.out, "Password")
	if err != nil {
		return err
	}
	acc, err := a.client.Accounts.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Welcome, %s %s", acc.FirstName, acc.LastName))
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := promptRequired(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	if err := a.client.Accounts.ForgotPassword(ctx, email); err != nil {
		return err
	}
	a.println("Please check your email for password reset instructions")
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	token, err := promptRequired(a.reader, a.out, "Reset token")
	if err != nil {
		return err
	}
	if err := a.client.Accounts.ValidateResetToken(ctx, token); err != nil {
		return err
	}
	password, err := promptPassword(a.out, "New password")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	if err := a.client.Accounts.ResetPassword(ctx, token, password, confirm); err != nil {
		return err
	}
	a.println("Password reset, you can now login")
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.client.Accounts.Logout()
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	cur := a.client.Session.Current()
	if cur == nil {
		return client.ErrNotLoggedIn
	}
	acc, err := a.client.Accounts.GetByID(ctx, cur.ID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\nName\t%s %s %s\nEmail\t%s\nRole\t%s\nActive\t%t\n",
		acc.ID, acc.Title, acc.FirstName, acc.LastName, acc.Email, acc.Role, acc.IsActive)
	return tw.Flush()
}

/** DEPARTMENTS */

func (a *App) Departments(ctx context.Context) error {
	depts, err := a.client.Departments.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMPLOYEES\tDESCRIPTION")
	for _, d := range depts {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", d.ID, d.Name, d.EmployeeCount, d.Description)
	}
	return tw.Flush()
}

func (a *App) AddDepartment(ctx context.Context) error {
	name, err := promptRequired(a.reader, a.out, "Name")
	if err != nil {
		return err
	}
	desc, err := promptRequired(a.reader, a.out, "Description")
	if err != nil {
		return err
	}
	d, err := a.client.Departments.Create(ctx, client.DepartmentInput{Name: name, Description: desc})
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Department %d created", d.ID))
	return nil
}

/** EMPLOYEES */

func (a *App) Employees(ctx context.Context) error {
	emps, err := a.client.Employees.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tEMAIL\tPOSITION\tDEPARTMENT\tHIRED\tSTATUS")
	for _, e := range emps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.EmployeeID, deref(e.UserEmail), e.Position, deref(e.DepartmentName),
			e.HireDate.Format("2006-01-02"), e.Status)
	}
	return tw.Flush()
}

func (a *App) AddEmployee(ctx context.Context) error {
	var in client.EmployeeInput
	var err error
	if in.EmployeeID, err = promptRequired(a.reader, a.out, "Employee code"); err != nil {
		return err
	}
	if in.UserID, err = promptID(a.reader, a.out, "Account id"); err != nil {
		return err
	}
	if in.Position, err = promptRequired(a.reader, a.out, "Position"); err != nil {
		return err
	}
	if in.DepartmentID, err = promptID(a.reader, a.out, "Department id"); err != nil {
		return err
	}
	if in.HireDate, err = promptRequired(a.reader, a.out, "Hire date (YYYY-MM-DD)"); err != nil {
		return err
	}
	e, err := a.client.Employees.Create(ctx, in)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Employee %d created with an onboarding workflow", e.ID))
	return nil
}

func (a *App) Transfer(ctx context.Context) error {
	id, err := promptID(a.reader, a.out, "Employee id")
	if err != nil {
		return err
	}
	dept, err := promptID(a.reader, a.out, "New department id")
	if err != nil {
		return err
	}
	e, err := a.client.Employees.Transfer(ctx, id, dept)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Employee %s moved to %s", e.EmployeeID, deref(e.DepartmentName)))
	return nil
}

/** REQUESTS */

// Requests lists every request for admins and the caller's own otherwise.
func (a *App) Requests(ctx context.Context) error {
	var (
		reqs []client.Request
		err  error
	)
	if cur := a.client.Session.Current(); cur != nil && cur.IsAdmin() {
		reqs, err = a.client.Requests.List(ctx)
	} else {
		var id uint
		if id, err = promptID(a.reader, a.out, "Your employee id"); err != nil {
			return err
		}
		reqs, err = a.client.Requests.ListByEmployee(ctx, id)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tTYPE\tSTATUS\tITEMS")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\n", r.ID, r.EmployeeID, r.Type, r.Status, len(r.Items))
	}
	return tw.Flush()
}

func (a *App) AddRequest(ctx context.Context) error {
	typ, err := prompt(a.reader, a.out, "Type (blank for General)")
	if err != nil {
		return err
	}
	desc, err := prompt(a.reader, a.out, "Description")
	if err != nil {
		return err
	}

	var items []client.RequestItem
	for {
		name, err := prompt(a.reader, a.out, "Item name (blank to finish)")
		if err != nil {
			return err
		}
		if name == "" {
			break
		}
		qty := 1
		raw, err := prompt(a.reader, a.out, "Quantity (blank for 1)")
		if err != nil {
			return err
		}
		if raw != "" {
			if qty, err = strconv.Atoi(raw); err != nil || qty < 1 {
				return fmt.Errorf("quantity must be a positive number")
			}
		}
		items = append(items, client.RequestItem{Name: name, Quantity: qty})
	}

	r, err := a.client.Requests.Create(ctx, client.RequestInput{Type: typ, Description: desc, Items: items})
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Request %d submitted", r.ID))
	return nil
}

func (a *App) Decide(ctx context.Context, status string) error {
	id, err := promptID(a.reader, a.out, "Request id")
	if err != nil {
		return err
	}
	comments, err := prompt(a.reader, a.out, "Comments")
	if err != nil {
		return err
	}
	in := client.RequestUpdate{Status: status}
	if comments != "" {
		in.Comments = &comments
	}
	r, err := a.client.Requests.Update(ctx, id, in)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Request %d is now %s", r.ID, r.Status))
	return nil
}

/** WORKFLOWS */

func (a *App) Workflows(ctx context.Context) error {
	id, err := promptID(a.reader, a.out, "Employee id")
	if err != nil {
		return err
	}
	flows, err := a.client.Workflows.ListByEmployee(ctx, id)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tCREATED\tCOMMENTS")
	for _, w := range flows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", w.ID, w.Type, w.Status, w.Created.Format("2006-01-02"), w.Comments)
	}
	return tw.Flush()
}

func (a *App) Onboardings(ctx context.Context) error {
	raw, err := prompt(a.reader, a.out, "Days (blank for 30)")
	if err != nil {
		return err
	}
	days := 0
	if raw != "" {
		if days, err = strconv.Atoi(raw); err != nil || days < 1 {
			return fmt.Errorf("days must be a positive number")
		}
	}
	list, err := a.client.Workflows.RecentOnboardings(ctx, days)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tDEPARTMENT\tEMAIL\tSTATUS\tCREATED")
	for _, o := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.EmployeeName, o.DepartmentName, o.Email, o.Status, o.Created.Format("2006-01-02"))
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
