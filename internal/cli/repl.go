package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it
// with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to
// operate. The real App type satisfies this interface; tests can provide
// a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	RegisterFace(ctx context.Context) error
	Login(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	VerifyFace(ctx context.Context) error
	Admin(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are
// reported back to the user. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("faceguard> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: passwd, verifyface, logout, exit")
			} else {
				printlnFn("Available commands: register, registerface, login, admin, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "registerface":
			_ = a.RegisterFace(ctx)

		case "login":
			_ = a.Login(ctx)

		case "passwd":
			if !a.isLoggedIn() {
				printlnFn("Log in first")
				continue
			}
			_ = a.ChangePassword(ctx)

		case "verifyface":
			if !a.isLoggedIn() {
				printlnFn("Log in first")
				continue
			}
			_ = a.VerifyFace(ctx)

		case "admin":
			_ = a.Admin(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
