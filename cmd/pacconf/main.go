// Package main is the entry point for the pacconf command line tool.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dshills/pacconf/internal/config"
	"github.com/dshills/pacconf/internal/config/loader"
	"github.com/dshills/pacconf/internal/config/plugin"
	"github.com/dshills/pacconf/internal/persist"
	"github.com/dshills/pacconf/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := &cli.App{
		Name:    "pacconf",
		Usage:   "inspect and edit configuration embedded in PAC scripts",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "PAC script carrying the embedded default configuration",
			},
			&cli.StringFlag{
				Name:    "overlay",
				Aliases: []string{"o"},
				Usage:   "JSON file holding user customizations",
			},
			&cli.StringSliceFlag{
				Name:  "schema",
				Usage: "plugin schema as name=path (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "print the configuration embedded in a PAC script",
				ArgsUsage: " ",
				Action:    cmdExtract,
			},
			{
				Name:      "inject",
				Usage:     "replace the embedded configuration with a JSON document",
				ArgsUsage: "CONFIG_JSON_FILE",
				Action:    cmdInject,
			},
			{
				Name:      "get",
				Usage:     "read a setting from the merged view",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "fail when the path has no value",
					},
				},
				Action: cmdGet,
			},
			{
				Name:      "set",
				Usage:     "write a customization and save the overlay",
				ArgsUsage: "PATH VALUE_JSON",
				Action:    cmdSet,
			},
			{
				Name:      "unset",
				Usage:     "remove a customization and save the overlay",
				ArgsUsage: "PATH",
				Action:    cmdUnset,
			},
			{
				Name:  "validate",
				Usage: "check the merged configuration against all registered schemas",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "keep running and re-validate when the overlay file changes",
					},
				},
				Action: cmdValidate,
			},
			{
				Name:   "plugins",
				Usage:  "list plugin descriptors declared in the merged configuration",
				Action: cmdPlugins,
			},
		},
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func cmdExtract(c *cli.Context) error {
	raw, err := readScript(c)
	if err != nil {
		return err
	}
	payload, err := script.Extract(raw)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimRight(string(payload), "\n"))
	return nil
}

func cmdInject(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("inject takes exactly one argument: the JSON file to embed")
	}
	raw, err := readScript(c)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	updated, err := script.Inject(raw, payload)
	if err != nil {
		return err
	}
	return os.WriteFile(c.String("file"), []byte(updated), 0o644)
}

func cmdGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("get takes exactly one argument: the setting path")
	}
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	value, found, err := store.Get(c.Args().First(), c.Bool("strict"))
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("null")
		return nil
	}
	return printJSON(value)
}

func cmdSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("set takes exactly two arguments: path and JSON value")
	}
	store, overlayPath, err := openStore(c)
	if err != nil {
		return err
	}
	var value any
	if err := json.Unmarshal([]byte(c.Args().Get(1)), &value); err != nil {
		return fmt.Errorf("value is not valid JSON: %w", err)
	}
	if err := store.Set(c.Args().First(), value); err != nil {
		return err
	}
	if err := store.Validate(); err != nil {
		return err
	}
	return saveOverlay(store, overlayPath)
}

func cmdUnset(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("unset takes exactly one argument: the setting path")
	}
	store, overlayPath, err := openStore(c)
	if err != nil {
		return err
	}
	if !store.Unset(c.Args().First()) {
		slog.Info("path had no customization", "path", c.Args().First())
	}
	if err := store.Validate(); err != nil {
		return err
	}
	return saveOverlay(store, overlayPath)
}

func cmdValidate(c *cli.Context) error {
	store, overlayPath, err := openStore(c)
	if err != nil {
		return err
	}

	if !c.Bool("watch") {
		if err := store.Validate(); err != nil {
			return err
		}
		fmt.Println("configuration is valid")
		return nil
	}

	if overlayPath == "" {
		return fmt.Errorf("--watch requires --overlay")
	}

	report := func() {
		if err := store.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
			return
		}
		fmt.Println("configuration is valid")
	}

	w := persist.NewWatcher(overlayPath, func(path string) {
		overlay, err := persist.LoadOverlay(path)
		if err != nil {
			slog.Error("overlay reload failed", "path", path, "error", err)
			return
		}
		store.LoadOverlay(overlay)
		report()
	})
	w.Start()
	defer w.Stop()

	report()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return nil
}

func cmdPlugins(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	view, err := store.MergedView()
	if err != nil {
		return err
	}
	section, ok := view[plugin.ReservedName].(map[string]any)
	if !ok {
		return fmt.Errorf("merged configuration has no %q section", plugin.ReservedName)
	}
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry, _ := section[name].(map[string]any)
		ver, err := plugin.NormalizeVersion(entry["version"])
		if err != nil {
			ver = "?"
		}
		fmt.Printf("%s\t%s\n", name, ver)
	}
	return nil
}

// openStore builds a Store from the PAC script's embedded defaults, the
// schemas named on the command line, and the overlay file when present.
func openStore(c *cli.Context) (*config.Store, string, error) {
	raw, err := readScript(c)
	if err != nil {
		return nil, "", err
	}
	payload, err := script.Extract(raw)
	if err != nil {
		return nil, "", err
	}
	def, err := loader.ParseTree(payload, loader.FormatJSON)
	if err != nil {
		return nil, "", fmt.Errorf("embedded configuration is not a JSON object: %w", err)
	}

	registry := plugin.NewRegistry()
	for _, spec := range c.StringSlice("schema") {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, "", fmt.Errorf("invalid --schema %q, want name=path", spec)
		}
		doc, err := loader.LoadSchemaFile(path)
		if err != nil {
			return nil, "", err
		}
		desc := plugin.Descriptor{Name: name, Schema: doc}
		if entry, ok := def[plugin.ReservedName].(map[string]any); ok {
			if meta, ok := entry[name].(map[string]any); ok {
				if ver, err := plugin.NormalizeVersion(meta["version"]); err == nil {
					desc.Version = ver
				}
			}
		}
		if err := registry.Register(desc); err != nil {
			return nil, "", err
		}
	}

	store, err := config.New(def, registry)
	if err != nil {
		return nil, "", err
	}

	overlayPath := c.String("overlay")
	if overlayPath != "" {
		overlay, err := persist.LoadOverlay(overlayPath)
		if err != nil {
			return nil, "", err
		}
		store.LoadOverlay(overlay)
	}
	return store, overlayPath, nil
}

func saveOverlay(store *config.Store, path string) error {
	if path == "" {
		slog.Warn("no overlay file given, change not persisted")
		return nil
	}
	return persist.SaveOverlay(path, store.Overlay())
}

func readScript(c *cli.Context) (string, error) {
	path := c.String("file")
	if path == "" {
		return "", fmt.Errorf("--file is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PAC script: %w", err)
	}
	return string(raw), nil
}

func printJSON(value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
