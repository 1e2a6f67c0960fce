package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/iqinterp/internal/api"
	"github.com/banshee-data/iqinterp/internal/config"
	"github.com/banshee-data/iqinterp/internal/db"
	"github.com/banshee-data/iqinterp/internal/iqmodule"
	"github.com/banshee-data/iqinterp/internal/monitoring"
	"github.com/banshee-data/iqinterp/internal/version"
)

func main() {
	flag.Usage = func() { printUsage(os.Stdout) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "resolve":
		err = handleResolve(os.Stdout, args)
	case "history":
		err = handleHistory(os.Stdout, args)
	case "serve":
		err = handleServe(args)
	case "migrate":
		err = handleMigrate(os.Stdout, args)
	case "modules":
		for _, name := range iqmodule.Modules() {
			fmt.Println(name)
		}
	case "version":
		fmt.Printf("iqinterp %s\n", version.String())
	case "help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `iqinterp - resolve ISP IQ module parameters from chromatix calibration

Usage: iqinterp <command> [options]

Commands:
  resolve    Resolve one module for a trigger snapshot
  history    List recorded resolve runs
  serve      Serve resolves over HTTP
  migrate    Manage the run database schema
  modules    List supported modules
  version    Show iqinterp version
  help       Show this help message

Run 'iqinterp <command> -h' for command flags.`)
}

// loadConfig reads the tool config, or returns the defaults when path is
// empty. It also applies the quiet setting.
func loadConfig(path string) (*config.ToolConfig, error) {
	cfg := config.EmptyToolConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadToolConfig(path); err != nil {
			return nil, err
		}
	}
	if cfg.GetQuiet() {
		monitoring.Quiet(true)
	}
	return cfg, nil
}

// parseTrigger decodes a TriggerData snapshot from inline JSON or, with a
// leading '@', from a file.
func parseTrigger(s string) (iqmodule.TriggerData, error) {
	var d iqmodule.TriggerData
	if s == "" {
		return d, nil
	}
	data := []byte(s)
	if s[0] == '@' {
		var err error
		if data, err = os.ReadFile(s[1:]); err != nil {
			return d, fmt.Errorf("read trigger: %w", err)
		}
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse trigger: %w", err)
	}
	return d, nil
}

func handleResolve(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	module := fs.String("module", "", "Module name (see 'iqinterp modules')")
	chromatixPath := fs.String("chromatix", "", "Chromatix JSON file for the module")
	trigger := fs.String("trigger", "", "Trigger snapshot as JSON, or @file")
	configPath := fs.String("config", "", "Tool config JSON file")
	dbPath := fs.String("db", "", "Run database path (overrides config)")
	record := fs.Bool("record", false, "Record the resolve in the run database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *module == "" || *chromatixPath == "" {
		return fmt.Errorf("-module and -chromatix are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	trig, err := parseTrigger(*trigger)
	if err != nil {
		return err
	}

	r, err := iqmodule.Load(*module, *chromatixPath)
	if err != nil {
		return err
	}
	params, err := r.Resolve(&trig)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(params); err != nil {
		return err
	}

	if !*record {
		return nil
	}
	path := *dbPath
	if path == "" {
		path = cfg.GetDBPath()
	}
	database, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer database.Close()

	id, err := database.RecordResolve(context.Background(), r.Name(), *chromatixPath, trig, params)
	if err != nil {
		return err
	}
	monitoring.Logf("recorded resolve run %s in %s", id, path)
	return nil
}

func handleHistory(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	module := fs.String("module", "", "Only list runs for this module")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	configPath := fs.String("config", "", "Tool config JSON file")
	dbPath := fs.String("db", "", "Run database path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	path := *dbPath
	if path == "" {
		path = cfg.GetDBPath()
	}
	database, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListResolves(context.Background(), *module, *limit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %-16s %s\n",
			run.RunID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Module, run.Trigger)
	}
	return nil
}

func handleMigrate(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Tool config JSON file")
	dbPath := fs.String("db", "", "Run database path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	path := *dbPath
	if path == "" {
		path = cfg.GetDBPath()
	}
	return db.RunMigrateCommand(w, fs.Args(), path)
}

// parseLoads parses "module=path,module=path".
func parseLoads(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, path, ok := strings.Cut(part, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid load %q, expected module=path", part)
		}
		out[name] = path
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no modules to load")
	}
	return out, nil
}

func handleServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	load := fs.String("load", "", "Modules to load as module=chromatix.json, comma-separated")
	configPath := fs.String("config", "", "Tool config JSON file")
	dbPath := fs.String("db", "", "Run database path (overrides config)")
	noDB := fs.Bool("no-db", false, "Do not record resolves")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *listen == "" {
		return fmt.Errorf("listen address is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	loads, err := parseLoads(*load)
	if err != nil {
		return err
	}

	var database *db.DB
	if !*noDB {
		path := *dbPath
		if path == "" {
			path = cfg.GetDBPath()
		}
		if database, err = db.NewDB(path); err != nil {
			return err
		}
		defer database.Close()
	}

	s := api.NewServer(database)
	for name, path := range loads {
		if err := s.Load(name, path); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              *listen,
		Handler:           api.LoggingMiddleware(s.ServeMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
