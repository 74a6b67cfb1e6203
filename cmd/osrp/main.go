// osrp is the command-line client for osrpd: it registers users and
// performs oblivious SRP logins, optionally against several OPRF servers
// whose outputs are all bound into the verifier.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/osrplabs/osrp/internal/client"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Printf("osrp version %s\n", version)
		return
	case "register", "login":
		// Handled below.
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	servers := fs.String("servers", "http://127.0.0.1:8470", "comma-separated server base URLs; the first is the authentication server")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when omitted)")
	timeout := fs.Duration("timeout", 60*time.Second, "overall operation timeout")
	_ = fs.Parse(os.Args[2:])

	if *username == "" {
		fmt.Fprintln(os.Stderr, "Error: -username is required")
		os.Exit(1)
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = promptPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	flow, err := buildFlow(*servers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch command {
	case "register":
		if err := flow.Register(ctx, *username, pw); err != nil {
			fmt.Fprintf(os.Stderr, "Registration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered %s\n", *username)
	case "login":
		key, err := flow.Login(ctx, *username, pw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
		// The mutual key itself stays in-process; print only its length
		// as confirmation.
		fmt.Printf("Login succeeded for %s (session key established, %d hex digits)\n", *username, len(key))
	}
}

// buildFlow parses the -servers list into API clients.
func buildFlow(servers string) (*client.Flow, error) {
	var clients []*client.Client
	for _, raw := range strings.Split(servers, ",") {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		clients = append(clients, client.New(strings.TrimRight(url, "/")))
	}
	return client.NewFlow(clients)
}

// promptPassword reads the password without echo.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(pw), nil
}

func printUsage() {
	fmt.Print(`osrp - oblivious SRP client

Usage:
  osrp register -username <name> [-password <pw>] [-servers <urls>]
  osrp login    -username <name> [-password <pw>] [-servers <urls>]

Options:
  -servers   Comma-separated base URLs. The first entry is the
             authentication server; every entry contributes an OPRF
             evaluation in order. (default "http://127.0.0.1:8470")
  -username  Username to register or authenticate.
  -password  Password. Prompted without echo when omitted.
  -timeout   Overall operation timeout (default 60s).
`)
}
