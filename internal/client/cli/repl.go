package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error

	Browse(ctx context.Context) error
	Search(ctx context.Context, text string) error
	Category(ctx context.Context, name string) error
	Show(ctx context.Context, id string) error
	Bookmark(ctx context.Context, id string) error
	Saved(ctx context.Context) error

	Mine(ctx context.Context) error
	Publish(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	Inbox(ctx context.Context) error
	Chat(ctx context.Context, listingID, userID string) error
	Send(ctx context.Context, text string) error
	CloseChat(ctx context.Context) error

	Ask(ctx context.Context, question string) error
}

const (
	helpGuest = "Available commands: register, login, (l)ist, search <text>, category <name>, show <id>, ask <question>, exit"
	helpUser  = "Available commands: (l)ist, search <text>, category <name>, show <id>, bookmark <id>, saved, " +
		"mine, publish, edit <id>, delete <id>, inbox, chat <listing-id> <user-id>, send <text>, close, " +
		"ask <question>, profile, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the UrbanNest CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Errors returned by handlers are printed and
// the loop continues. The loop exits on EOF or when the user types "exit"
// or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("urbannest%s> ", prefixed(statusFn())))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		rest := strings.Join(args, " ")

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpUser)
			} else {
				printlnFn(helpGuest)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "profile":
			cmdErr = a.Profile(ctx)

		case "l", "list", "browse":
			cmdErr = a.Browse(ctx)
		case "search":
			cmdErr = a.Search(ctx, rest)
		case "category":
			if rest == "" {
				printlnFn("Usage: category <All|Apartment|Bachelors|Sublet|Budget|Verified|Available>")
				continue
			}
			cmdErr = a.Category(ctx, rest)
		case "show", "bookmark", "edit", "delete":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			switch cmd {
			case "show":
				cmdErr = a.Show(ctx, args[0])
			case "bookmark":
				cmdErr = a.Bookmark(ctx, args[0])
			case "edit":
				cmdErr = a.Edit(ctx, args[0])
			case "delete":
				cmdErr = a.Delete(ctx, args[0])
			}
		case "saved":
			cmdErr = a.Saved(ctx)

		case "mine":
			cmdErr = a.Mine(ctx)
		case "publish":
			cmdErr = a.Publish(ctx)

		case "inbox":
			cmdErr = a.Inbox(ctx)
		case "chat":
			if len(args) != 2 {
				printlnFn("Usage: chat <listing-id> <user-id>")
				continue
			}
			cmdErr = a.Chat(ctx, args[0], args[1])
		case "send":
			if rest == "" {
				printlnFn("Usage: send <text>")
				continue
			}
			cmdErr = a.Send(ctx, rest)
		case "close":
			cmdErr = a.CloseChat(ctx)

		case "ask":
			if rest == "" {
				printlnFn("Usage: ask <question>")
				continue
			}
			cmdErr = a.Ask(ctx, rest)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

func prefixed(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
