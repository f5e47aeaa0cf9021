package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyleguay/fitlog/internal/diet"
)

// newCreateUserCmd prompts for credentials on stdin and creates a user with a
// bcrypt-hashed password. Profile fields are filled in later through the API.
func newCreateUserCmd(a *app) *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			username, err := prompt(reader, out, "Username: ")
			if err != nil {
				return err
			}
			email, err := prompt(reader, out, "Email: ")
			if err != nil {
				return err
			}
			password, err := prompt(reader, out, "Password: ")
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u, err := a.db.CreateUser(cmd.Context(), diet.User{
				Username: username,
				Email:    email,
				Name:     username,
				Password: string(hash),
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(out, "\nUser created successfully!\n")
			fmt.Fprintf(out, "  ID:       %d\n", u.ID)
			fmt.Fprintf(out, "  Username: %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost factor")
	return cmd
}

func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
