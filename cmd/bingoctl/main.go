// Command bingoctl manages a local bingo board and syncs it with a session
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"bingo/internal/catalog"
	"bingo/internal/client"
	"bingo/internal/config"
	"bingo/internal/models"
	"bingo/internal/session"
	"bingo/internal/tracker"
	"bingo/internal/util"
)

const usage = `usage: bingoctl [flags] <command> [args]

board commands:
  show                         render the board
  add -name N -item I [...]    add a tile (items as "name[:qty[:source]]")
  edit <tile-id> -name N ...   redefine a tile, keeping progress per item
  rm <tile-id>                 delete a tile
  move <from> <to>             reorder tiles by index
  inc|dec <tile-id> <item>     change an item's progress by one
  set <tile-id> <item> <n>     set an item's progress
  toggle <tile-id>             mark or unmark a tile complete
  clear                        reset all progress
  stats                        print completion stats
  export [file]                write the board as JSON (stdout by default)
  import <file>                replace the board from a JSON array
  suggest <text>               item name suggestions

session commands:
  push                         upload the board as a new session
  pull <code>                  replace the board with a session's tiles
  sync <code> [-password P]    save the board into an existing session
  claim <code> <password>      protect a session with a password

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "bingoctl: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	board      *tracker.Tracker
	api        *client.Client
	catalogURL string
	configPath string
	out        io.Writer
	logger     *slog.Logger
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bingo")
	}
	return ".bingo"
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bingoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataDir := fs.String("data", util.EnvOrDefault("BINGO_DATA_DIR", defaultDataDir()), "Directory holding the local board")
	serverURL := fs.String("server", util.EnvOrDefault("BINGO_SERVER", "http://localhost:3000"), "Session server base URL")
	catalogURL := fs.String("catalog", "", "Item mapping feed URL (default from config)")
	configPath := fs.String("config", "", "Path to a YAML config file (defaults to BINGO_CONFIG)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	storage, err := tracker.NewFileStorage(*dataDir)
	if err != nil {
		return err
	}
	board, err := tracker.Open(storage)
	if err != nil {
		return err
	}

	a := &app{
		board:      board,
		api:        client.New(*serverURL, nil),
		catalogURL: *catalogURL,
		configPath: *configPath,
		out:        stdout,
		logger:     logger,
	}
	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "show":
		a.show()
		return nil
	case "add":
		return a.add(args)
	case "edit":
		return a.edit(args)
	case "rm":
		if err := want(args, 1, "rm <tile-id>"); err != nil {
			return err
		}
		return a.board.DeleteTile(args[0])
	case "move":
		if err := want(args, 2, "move <from> <to>"); err != nil {
			return err
		}
		from, to, err := atoi2(args[0], args[1])
		if err != nil {
			return err
		}
		return a.board.MoveTile(from, to)
	case "inc", "dec":
		if err := want(args, 2, cmd+" <tile-id> <item>"); err != nil {
			return err
		}
		item, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("item index: %w", err)
		}
		if cmd == "inc" {
			return a.board.Increment(args[0], item)
		}
		return a.board.Decrement(args[0], item)
	case "set":
		if err := want(args, 3, "set <tile-id> <item> <n>"); err != nil {
			return err
		}
		item, value, err := atoi2(args[1], args[2])
		if err != nil {
			return err
		}
		return a.board.SetProgress(args[0], item, value)
	case "toggle":
		if err := want(args, 1, "toggle <tile-id>"); err != nil {
			return err
		}
		done, err := a.board.ToggleComplete(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "complete: %t\n", done)
		return nil
	case "clear":
		return a.board.ClearProgress()
	case "stats":
		s := a.board.Stats()
		fmt.Fprintf(a.out, "%d/%d tiles complete (%d%%)\n", s.Completed, s.Total, s.Percent)
		return nil
	case "export":
		return a.export(args)
	case "import":
		if err := want(args, 1, "import <file>"); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if err := a.board.Import(data); err != nil {
			return fmt.Errorf("invalid file format: %w", err)
		}
		return nil
	case "suggest":
		if len(args) == 0 {
			return errors.New("usage: suggest <text>")
		}
		url, err := a.feedURL()
		if err != nil {
			return err
		}
		for _, name := range catalog.Load(ctx, url, a.logger).Suggest(strings.Join(args, " ")) {
			fmt.Fprintln(a.out, name)
		}
		return nil
	case "push":
		code, err := a.api.Create(ctx, a.board.Tiles())
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, code)
		return nil
	case "pull":
		if err := want(args, 1, "pull <code>"); err != nil {
			return err
		}
		sess, err := a.api.Load(ctx, args[0])
		if err != nil {
			return err
		}
		return a.board.Replace(sess.Tiles)
	case "sync":
		return a.sync(ctx, args)
	case "claim":
		if err := want(args, 2, "claim <code> <password>"); err != nil {
			return err
		}
		return a.api.Claim(ctx, args[0], args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// feedURL prefers -catalog and otherwise reads catalog.url from the shared
// config, which also honours BINGO_CATALOG_URL.
func (a *app) feedURL() (string, error) {
	if a.catalogURL != "" {
		return a.catalogURL, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Catalog.URL, nil
}

func (a *app) show() {
	fmt.Fprint(a.out, renderBoard(a.board.Tiles(), a.board.Stats()))
}

// itemList collects repeated -item flags.
type itemList []models.Item

func (l *itemList) String() string {
	names := make([]string, 0, len(*l))
	for _, it := range *l {
		names = append(names, it.Name)
	}
	return strings.Join(names, ",")
}

// Set parses "name[:quantity[:source]]".
func (l *itemList) Set(v string) error {
	parts := strings.SplitN(v, ":", 3)
	it := models.Item{Name: strings.TrimSpace(parts[0]), Quantity: 1}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		q, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return fmt.Errorf("quantity of %q: %w", it.Name, err)
		}
		it.Quantity = q
	}
	if len(parts) > 2 {
		it.Source = strings.TrimSpace(parts[2])
	}
	*l = append(*l, it)
	return nil
}

func parseTileFlags(name string, args []string) (tracker.TileInput, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var in tracker.TileInput
	var items itemList
	fs.StringVar(&in.Name, "name", "", "Tile name")
	fs.StringVar(&in.Description, "desc", "", "Tile description")
	fs.StringVar(&in.Notes, "notes", "", "Notes, markdown links allowed")
	fs.BoolVar(&in.OrLogic, "any", false, "Complete when any item is done")
	fs.Var(&items, "item", "Item as name[:qty[:source]], repeatable")
	if err := fs.Parse(args); err != nil {
		return in, nil, err
	}
	in.Items = items
	return in, fs.Args(), nil
}

func (a *app) add(args []string) error {
	in, _, err := parseTileFlags("add", args)
	if err != nil {
		return err
	}
	id, err := a.board.AddTile(in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, id)
	return nil
}

func (a *app) edit(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: edit <tile-id> -name N -item I [...]")
	}
	in, _, err := parseTileFlags("edit", args[1:])
	if err != nil {
		return err
	}
	return a.board.UpdateTile(args[0], in)
}

func (a *app) export(args []string) error {
	data, err := a.board.Export()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}
	return os.WriteFile(args[0], data, 0o644)
}

func (a *app) sync(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: sync <code> [-password P]")
	}
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	password := fs.String("password", os.Getenv("BINGO_PASSWORD"), "Session password")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	err := a.api.Save(ctx, args[0], a.board.Tiles(), *password)
	if errors.Is(err, session.ErrAuthRequired) {
		return fmt.Errorf("session %s is password protected; pass -password", args[0])
	}
	return err
}

func want(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func atoi2(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", a)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", b)
	}
	return x, y, nil
}
