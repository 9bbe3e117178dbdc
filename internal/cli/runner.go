// Package cli routes the client subcommands. `ls` opens the
// interactive view; the other verbs are one-shot requests for use in
// scripts.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nboone/todoapp/internal/client"
	"github.com/nboone/todoapp/internal/model"
	"github.com/nboone/todoapp/internal/tui"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

// Options tune client behavior from root flags.
type Options struct {
	ServerURL string
	Timeout   time.Duration
}

// Run dispatches a subcommand and returns the process exit code.
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	api := client.New(opt.ServerURL,
		client.WithHTTPClient(&http.Client{Timeout: opt.Timeout}),
	)

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return doList(api)

	case "add":
		if len(a) == 0 {
			fail("usage: todo add <title...>")
			return 2
		}
		return doAdd(api, opt, strings.Join(a, " "))

	case "done":
		id, code := parseID(a, "done")
		if code != 0 {
			return code
		}
		return doToggle(api, opt, id)

	case "rm":
		id, code := parseID(a, "rm")
		if code != 0 {
			return code
		}
		return doRemove(api, opt, id)

	case "edit":
		if len(a) < 2 {
			fail("usage: todo edit <id> <title...>")
			return 2
		}
		id, err := strconv.ParseInt(a[0], 10, 64)
		if err != nil {
			fail("edit: not a number: " + a[0])
			return 2
		}
		return doEdit(api, opt, id, strings.Join(a[1:], " "))

	case "print":
		return doPrint(api, opt)
	}

	fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`todo - client for the todo server

Usage:
  todo <subcommand> [args]

Subcommands:
  ls                 List todos (interactive view)
  print              Print todos without the interactive view
  add <title...>     Add a new todo (title can be multiple words)
  done <id>          Toggle completed for the todo with that id
  edit <id> <title...>  Replace the title of the todo with that id
  rm <id>            Delete the todo with that id

Flags:
  --server <url>     Server base URL (default http://localhost:8080,
                     or TODO_SERVER_URL)
  --timeout <dur>    Request timeout (default 10s)

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo rm 3
`)
}

func parseID(a []string, verb string) (int64, int) {
	if len(a) != 1 {
		fail("usage: todo " + verb + " <id>")
		return 0, 2
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		fail(verb + ": not a number: " + a[0])
		return 0, 2
	}
	return id, 0
}

func doList(api *client.Client) int {
	if err := tui.Run(api); err != nil {
		fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doPrint(api *client.Client, opt Options) int {
	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()

	if err := api.Refresh(ctx); err != nil {
		fail("error loading todos: " + err.Error())
		return 1
	}

	todos := api.Todos()
	if len(todos) == 0 {
		fmt.Println(mutedStyle.Render("no todos yet"))
		return 0
	}
	for _, t := range todos {
		line := fmt.Sprintf("%3d  ☐ %s", t.ID, t.Title)
		if t.Completed {
			line = fmt.Sprintf("%3d  ☑ %s", t.ID, doneStyle.Render(t.Title))
		}
		fmt.Println(line)
	}
	s := api.Stats()
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d left, %d done", s.ItemsLeft, s.Completed)))
	return 0
}

func doAdd(api *client.Client, opt Options, title string) int {
	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()

	title = strings.TrimSpace(title)
	if title == "" {
		fail("add: empty title")
		return 2
	}
	todo, err := api.Create(ctx, title)
	if err != nil {
		fail("add: " + err.Error())
		return 1
	}
	ok(fmt.Sprintf("added #%d", todo.ID))
	return 0
}

func doToggle(api *client.Client, opt Options, id int64) int {
	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()

	todo, err := api.Toggle(ctx, id)
	if err != nil {
		fail("done: " + err.Error())
		return 1
	}
	if todo.Completed {
		ok(fmt.Sprintf("completed #%d", todo.ID))
	} else {
		ok(fmt.Sprintf("reopened #%d", todo.ID))
	}
	return 0
}

func doEdit(api *client.Client, opt Options, id int64, title string) int {
	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()

	title = strings.TrimSpace(title)
	if title == "" {
		fail("edit: empty title")
		return 2
	}
	todo, err := api.Update(ctx, id, model.UpdateTodoRequest{Title: &title})
	if err != nil {
		fail("edit: " + err.Error())
		return 1
	}
	ok(fmt.Sprintf("updated #%d", todo.ID))
	return 0
}

func doRemove(api *client.Client, opt Options, id int64) int {
	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()

	if err := api.Delete(ctx, id); err != nil {
		fail("rm: " + err.Error())
		return 1
	}
	ok(fmt.Sprintf("removed #%d", id))
	return 0
}

func ok(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+msg))
}
