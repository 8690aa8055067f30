// Command authctl logs in against authd, calls the protected endpoints and
// logs out. "authctl hash" prints a bcrypt hash for seeding.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-print"
	"golang.org/x/term"

	auth "github.com/goliatone/go-auth-gate"
	"github.com/goliatone/go-auth-gate/client"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash" {
		if err := runHash(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "authctl:", err)
			os.Exit(1)
		}
		return
	}

	server := flag.String("server", "http://localhost:8000", "authd base URL")
	email := flag.String("email", "", "login email")
	timeout := flag.Duration("timeout", 10*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *server, *email, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "authctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, server, email string, w io.Writer) error {
	if email == "" {
		line, err := prompt(bufio.NewReader(os.Stdin), "Email", w)
		if err != nil {
			return err
		}
		email = line
	}

	password, err := getPassword(w)
	if err != nil {
		return err
	}

	logger := auth.NewLogger(os.Stderr, "text", "warn")
	session := client.NewSession(server, client.WithLogger(logger))
	session.OnTransition(func(from, to client.State) {
		fmt.Fprintf(w, "session: %s -> %s\n", from, to)
	})

	api := client.New(session)

	if err := session.Login(ctx, client.Credential{Email: email, Password: string(password)}); err != nil {
		return err
	}

	user, _ := session.User()
	fmt.Fprintf(w, "welcome %s (%s)\n", user.Name, user.ID)

	principal, err := api.Protected(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, print.MaybePrettyJSON(principal))

	users, total, err := api.ListUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d users\n", total)
	fmt.Fprintln(w, print.MaybePrettyJSON(users))

	session.Logout()

	if _, _, err := api.ListUsers(ctx); !errors.Is(err, client.ErrNotAuthenticated) {
		return fmt.Errorf("expected protected call to be blocked after logout, got %v", err)
	}
	fmt.Fprintln(w, "logged out, protected calls are blocked")

	return nil
}

func runHash(w io.Writer) error {
	password, err := getPassword(w)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return err
	}

	fmt.Fprintln(w, hash)
	return nil
}

func prompt(reader *bufio.Reader, label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, label+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func getPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
