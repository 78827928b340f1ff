package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/app"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/config"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/logging"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/request"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/session"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/table"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

const version = "0.1.0"

// Exit codes
const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitSession = 3
)

const usage = `Usage: backoffice [-config file] <command> [flags]

Commands:
  login -u <username> -p <password>   sign in and store the session
  logout                              end the session
  whoami                              show the signed-in user
  list <entity> [flags]               show one page of an entity table
  delete <entity> <id>                delete a row and show the refreshed table
  watch <entity> [-every schedule]    re-render the table on a schedule
  version                             print the version

Entities: %s
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries what every command needs
type cli struct {
	app       *app.App
	logger    *logrus.Logger
	out       io.Writer
	loginHint atomic.Bool
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", os.Getenv("BACKOFFICE_CONFIG"), "Path to the YAML config file")
	global.Usage = func() { fmt.Fprintf(stderr, usage, strings.Join(entityNames(), ", ")) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		global.Usage()
		return exitUsage
	}
	command, rest := global.Arg(0), global.Args()[1:]
	if command == "version" {
		fmt.Fprintf(stdout, "backoffice v%s\n", version)
		return exitOK
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}

	logger, err := logging.NewWithOutput(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to configure logging: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{logger: logger, out: stdout}
	c.app, err = app.New(ctx, cfg, app.Options{
		Logger: logger,
		Navigator: request.NavigatorFunc(func(path string) {
			if path == request.LoginPath {
				c.loginHint.Store(true)
			}
		}),
	})
	if err != nil {
		logger.WithError(err).Error("Failed to initialise client")
		return exitError
	}
	defer c.app.Close()

	commands := map[string]func(context.Context, []string) error{
		"login":  c.login,
		"logout": c.logout,
		"whoami": c.whoami,
		"list":   c.list,
		"delete": c.delete,
		"watch":  c.watch,
	}
	cmd, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n\n", command)
		global.Usage()
		return exitUsage
	}

	err = cmd(ctx, rest)
	switch {
	case c.loginHint.Load():
		fmt.Fprintln(stderr, "Your session has ended. Run `backoffice login` to sign in again.")
		return exitSession
	case errors.Is(err, errUsage):
		return exitUsage
	case err != nil && !errors.Is(err, context.Canceled):
		if request.KindOf(err) == 0 {
			logger.WithError(err).Error("Command failed")
		}
		return exitError
	}
	return exitOK
}

var errUsage = errors.New("usage")

func (c *cli) usageError(fs *flag.FlagSet, format string, args ...any) error {
	fmt.Fprintf(fs.Output(), format+"\n", args...)
	fs.Usage()
	return errUsage
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.logger.Out)
	return fs
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	username := fs.String("u", os.Getenv("BACKOFFICE_USERNAME"), "Username")
	password := fs.String("p", os.Getenv("BACKOFFICE_PASSWORD"), "Password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" || *password == "" {
		return c.usageError(fs, "login needs -u and -p")
	}

	user, err := c.app.API.Auth.Login(ctx, *username, *password)
	if err != nil {
		fmt.Fprintf(c.logger.Out, "Login failed: %s\n", loginMessage(err))
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", user.Username)
	return nil
}

func loginMessage(err error) string {
	var apiErr *request.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.app.API.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) whoami(ctx context.Context, _ []string) error {
	if !c.app.Session.Authenticated(ctx) {
		fmt.Fprintln(c.out, "Not logged in")
		return nil
	}
	user, err := c.app.API.Auth.Me(ctx)
	if err != nil {
		return err
	}

	role := "staff"
	if user.IsSuperuser {
		role = "superuser"
	}
	fmt.Fprintf(c.out, "%s (%s)\n", user.Username, role)
	if user.Email != "" {
		fmt.Fprintf(c.out, "email: %s\n", user.Email)
	}
	return nil
}

// filterFlag collects repeated -filter key=value pairs
type filterFlag models.Filters

func (f filterFlag) String() string {
	pairs := make([]string, 0, len(f))
	for _, k := range models.Filters(f).Keys() {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, f[k]))
	}
	return strings.Join(pairs, ",")
}

func (f filterFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("filter must look like key=value, got %q", value)
	}
	f[key] = val
	return nil
}

// openView parses the table flags shared by list and watch
func (c *cli) openView(name string, fs *flag.FlagSet, args []string) (tableView, int, error) {
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", c.app.Config.Table.PageSize, "Rows per page")
	search := fs.String("search", "", "Search term")
	filters := filterFlag{}
	fs.Var(filters, "filter", "Field filter key=value (repeatable)")

	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil, 0, c.usageError(fs, "%s needs an entity: %s", name, strings.Join(entityNames(), ", "))
	}
	factory, ok := views[args[0]]
	if !ok {
		return nil, 0, c.usageError(fs, "unknown entity %q", args[0])
	}
	if err := fs.Parse(args[1:]); err != nil {
		return nil, 0, errUsage
	}
	if *search != "" {
		filters["search"] = *search
	}

	view := factory(c.app.API, viewOptions{
		pageSize: *pageSize,
		filters:  models.Filters(filters),
		notifier: c.app.Notifier,
		logger:   c.logger,
	})
	return view, *page, nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	view, page, err := c.openView("list", fs, args)
	if err != nil {
		return err
	}

	if page > 1 {
		if err := view.OnPageChange(ctx, page, 0); err != nil {
			return err
		}
	} else if err := view.Start(ctx); err != nil {
		return err
	}
	return view.Render(c.out)
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := c.flags("delete")
	if len(args) < 2 {
		return c.usageError(fs, "usage: delete <entity> <id>")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id < 1 {
		return c.usageError(fs, "invalid id %q", args[1])
	}
	view, _, err := c.openView("delete", fs, []string{args[0]})
	if err != nil {
		return err
	}

	if err := view.Start(ctx); err != nil {
		return err
	}
	if err := view.HandleDelete(ctx, id); err != nil {
		return err
	}
	return view.Render(c.out)
}

// renderer re-renders its view after every scheduled refresh
type renderer struct {
	tableView
	out io.Writer
}

func (r renderer) Refresh(ctx context.Context) error {
	if err := r.tableView.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out)
	return r.Render(r.out)
}

func (c *cli) watch(ctx context.Context, args []string) error {
	fs := c.flags("watch")
	every := fs.String("every", "@every 30s", "Cron schedule or @every descriptor")
	view, page, err := c.openView("watch", fs, args)
	if err != nil {
		return err
	}

	if err := view.Start(ctx); err != nil {
		return err
	}
	if page > 1 {
		if err := view.OnPageChange(ctx, page, 0); err != nil {
			return err
		}
	}
	if err := view.Render(c.out); err != nil {
		return err
	}

	watcher := table.NewWatcher(c.logger)
	if err := watcher.Watch(*every, renderer{tableView: view, out: c.out}); err != nil {
		return c.usageError(fs, "%v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	c.logger.WithFields(logrus.Fields{"table": view.Name(), "schedule": *every}).Info("Watching table, press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case <-c.sessionEnded():
	}
	return nil
}

// sessionEnded closes once the client has sent the user to the login page
func (c *cli) sessionEnded() <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	c.app.Session.OnInvalidate(func(reason session.Reason) {
		if reason == session.ReasonUnauthorized {
			once.Do(func() { close(done) })
		}
	})
	return done
}
