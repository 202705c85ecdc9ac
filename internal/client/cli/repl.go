package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Whoami(ctx context.Context) error
	Rooms(ctx context.Context) error
	Open(ctx context.Context, otherUserID string) error
	Use(ctx context.Context, roomID string) error
	History(ctx context.Context) error
	Send(ctx context.Context, text string) error
	Follow(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF or "exit"/"quit". Handler errors are printed and the loop goes
// on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sm %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		line = strings.TrimSpace(line)

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "" {
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, rooms, open <userId>, use <roomId>, history, send <text>, follow, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, exit")
			}
		case "signup", "register":
			cmdErr = a.Signup(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "rooms", "l":
			cmdErr = a.Rooms(ctx)
		case "open":
			if rest == "" {
				printlnFn("Usage: open <userId>")
				continue
			}
			cmdErr = a.Open(ctx, rest)
		case "use":
			if rest == "" {
				printlnFn("Usage: use <roomId>")
				continue
			}
			cmdErr = a.Use(ctx, rest)
		case "history", "h":
			cmdErr = a.History(ctx)
		case "send", "s":
			if rest == "" {
				printlnFn("Usage: send <text>")
				continue
			}
			cmdErr = a.Send(ctx, rest)
		case "follow":
			cmdErr = a.Follow(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
