package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Save(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Unpaid(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
	Pending(ctx context.Context) error
	Retry(ctx context.Context, args []string) error
	Discard(ctx context.Context, args []string) error
	Backup(ctx context.Context) error
}

const (
	helpCommon    = "(l)ist <entity> [query k=v..], get <entity> <id>, save <entity> [id], delete <entity> <id>, unpaid <ownerId>, status, sync, pending, retry <id>, discard <id>"
	helpLoggedIn  = "Available commands: " + helpCommon + ", backup, logout, exit"
	helpLoggedOut = "Available commands: register, login, " + helpCommon + ", exit"
)

// runREPL starts a simple read–eval–print loop for the PayKeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and passes the remaining tokens to the handler. Unknown commands
// are reported back to the user. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
//
// Data commands work offline; backup needs a login because the snapshot is
// encrypted with the master key.
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx, args)

		case "get", "show":
			_ = a.Show(ctx, args)

		case "save":
			_ = a.Save(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "unpaid":
			_ = a.Unpaid(ctx, args)

		case "status":
			_ = a.Status(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "pending":
			_ = a.Pending(ctx)

		case "retry":
			_ = a.Retry(ctx, args)

		case "discard":
			_ = a.Discard(ctx, args)

		case "backup":
			_ = a.Backup(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
