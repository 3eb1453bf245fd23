package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	err   error
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	return f.record("register")
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Profile(ctx context.Context) error { return f.record("profile") }
func (f *fakeExec) Browse(ctx context.Context) error  { return f.record("browse") }
func (f *fakeExec) Search(ctx context.Context, text string) error {
	return f.record("search " + text)
}
func (f *fakeExec) Category(ctx context.Context, name string) error {
	return f.record("category " + name)
}
func (f *fakeExec) Show(ctx context.Context, id string) error     { return f.record("show " + id) }
func (f *fakeExec) Bookmark(ctx context.Context, id string) error { return f.record("bookmark " + id) }
func (f *fakeExec) Saved(ctx context.Context) error               { return f.record("saved") }
func (f *fakeExec) Mine(ctx context.Context) error                { return f.record("mine") }
func (f *fakeExec) Publish(ctx context.Context) error             { return f.record("publish") }
func (f *fakeExec) Edit(ctx context.Context, id string) error     { return f.record("edit " + id) }
func (f *fakeExec) Delete(ctx context.Context, id string) error   { return f.record("delete " + id) }
func (f *fakeExec) Inbox(ctx context.Context) error               { return f.record("inbox") }
func (f *fakeExec) Chat(ctx context.Context, listingID, userID string) error {
	return f.record("chat " + listingID + " " + userID)
}
func (f *fakeExec) Send(ctx context.Context, text string) error { return f.record("send " + text) }
func (f *fakeExec) CloseChat(ctx context.Context) error         { return f.record("close") }
func (f *fakeExec) Ask(ctx context.Context, question string) error {
	return f.record("ask " + question)
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := capturePrintln(t)

	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"l",
		"search lake  view",
		"category budget",
		"show abc",
		"bookmark abc",
		"saved",
		"mine",
		"publish",
		"edit abc",
		"delete abc",
		"inbox",
		"chat l1 u2",
		"send is it   available?",
		"close",
		"ask best area?",
		"profile",
		"logout",
		"exit",
		"browse",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(Rina renter)" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"login", "browse", "search lake view", "category budget", "show abc", "bookmark abc", "saved",
		"mine", "publish", "edit abc", "delete abc", "inbox", "chat l1 u2", "send is it available?",
		"close", "ask best area?", "profile", "logout",
	}, exec.calls)

	assert.Contains(t, *out, helpGuest)
	assert.Contains(t, *out, helpUser)
	assert.Contains(t, *out, "urbannest (Rina renter)> ")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	out := capturePrintln(t)

	input := "show\nchat l1\nsend\nask\ncategory\nfoobar\n\nquit\n"
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader(input)))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: show <id>")
	assert.Contains(t, *out, "Usage: chat <listing-id> <user-id>")
	assert.Contains(t, *out, "Usage: send <text>")
	assert.Contains(t, *out, "Usage: ask <question>")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "urbannest> ")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("saved\ninbox")))

	assert.Equal(t, []string{"saved", "inbox"}, exec.calls)
	assert.Equal(t, 2, strings.Count(strings.Join(*out, "\n"), "Error: boom"))
}
