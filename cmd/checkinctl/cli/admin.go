package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"eventcheckin/internal/attendance"
)

const minPasswordLen = 8

func newAdminCmd(flags *dbFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrators",
		Long:  "Create and list the administrators referenced by an activity's created_by field.",
	}

	cmd.AddCommand(newAdminCreateCmd(flags))
	cmd.AddCommand(newAdminListCmd(flags))

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd(flags *dbFlags) *cobra.Command {
	var (
		username    string
		email       string
		password    string
		ifNotExists bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		Example: `  checkinctl admin create --username admin --email admin@example.com --password secret123
  checkinctl admin create --username admin --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.Contains(email, "@") {
				return fmt.Errorf("invalid email address: %q", email)
			}
			if password == "" {
				pw, err := promptPassword(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = pw
			}
			if len(password) < minPasswordLen {
				return fmt.Errorf("password must be at least %d characters", minPasswordLen)
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			db, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			admin := &attendance.Administrator{Username: username, Email: email, PasswordHash: string(hash)}
			err = attendance.NewRepository(db).CreateAdministrator(cmd.Context(), admin)
			if errors.Is(err, attendance.ErrConflict) && ifNotExists {
				fmt.Fprintf(cmd.OutOrStdout(), "Administrator %q already exists\n", username)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %q (id %d)\n", admin.Username, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Administrator username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Administrator email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().BoolVar(&ifNotExists, "if-not-exists", false, "Succeed without changes when the username or email is taken")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(out, "Password: ")
	pw, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(out)

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Fprintln(out)

	if string(pw) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

// ---------- admin list ----------

func newAdminListCmd(flags *dbFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List administrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			admins, err := attendance.NewRepository(db).ListAdministrators(cmd.Context())
			if err != nil {
				return err
			}
			return printAdmins(cmd.OutOrStdout(), admins, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printAdmins(out io.Writer, admins []attendance.Administrator, jsonOutput bool) error {
	type adminRow struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Created  string `json:"created_at"`
	}

	rows := make([]adminRow, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, adminRow{ID: a.ID, Username: a.Username, Email: a.Email, Created: attendance.FormatTime(a.CreatedAt)})
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No administrators. Use 'checkinctl admin create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-30s %-20s\n", "ID", "USERNAME", "EMAIL", "CREATED")
	fmt.Fprintf(out, "%-6s %-20s %-30s %-20s\n", "--", "--------", "-----", "-------")
	for _, r := range rows {
		fmt.Fprintf(out, "%-6d %-20s %-30s %-20s\n", r.ID, r.Username, r.Email, r.Created)
	}
	return nil
}
