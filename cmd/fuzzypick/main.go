// Package main is the entry point for the fuzzypick command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tidwall/gjson"

	"github.com/dshills/fuzzypick/internal/config"
	"github.com/dshills/fuzzypick/internal/fuzzy"
	"github.com/dshills/fuzzypick/internal/pick"
	"github.com/dshills/fuzzypick/internal/script"
	"github.com/dshills/fuzzypick/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitMatched = 0
	exitNoMatch = 1
	exitError   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok := parseFlags()
	if !ok {
		return exitError
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	applyOverrides(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	registry := fuzzy.NewRegistry()
	engine := script.NewEngine(script.WithErrorHandler(func(name string, err error) {
		fmt.Fprintf(os.Stderr, "Error: script %s: %v\n", name, err)
	}))
	defer engine.Close()

	if cfg.ScriptsDir != "" {
		if _, err := engine.LoadDir(cfg.ScriptsDir, registry); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}

	pickOpts, err := cfg.Build(registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	items, err := readCandidates(opts.file, opts.jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	s := &session{
		opts:     opts,
		cfg:      cfg,
		registry: registry,
		engine:   engine,
		selector: pick.New(pickOpts),
		items:    items,
	}
	if opts.watchMode {
		return s.watchLoop()
	}
	return s.runQuery()
}

// options holds the parsed command line. The set map records which flags
// were given explicitly so they can override the config file.
type options struct {
	configPath string
	scriptsDir string
	strategy   string
	tieBreak   string
	minScore   int
	limit      int
	workers    int
	fold       bool
	best       bool
	jsonOut    bool
	jsonPath   string
	highlight  bool
	watchMode  bool

	set map[string]bool

	pattern string
	file    string
}

func (o *options) flagSet(names ...string) bool {
	for _, name := range names {
		if o.set[name] {
			return true
		}
	}
	return false
}

func parseFlags() (options, bool) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.scriptsDir, "scripts", "", "Directory of Lua strategy scripts")
	flag.StringVar(&opts.strategy, "strategy", "", "Matching strategy (backtrack, singlepass, or a script name)")
	flag.StringVar(&opts.strategy, "s", "", "Matching strategy (shorthand)")
	flag.StringVar(&opts.tieBreak, "tiebreak", "", `Tie-break policy ("score" or "score+matches")`)
	flag.IntVar(&opts.minScore, "min", 0, "Drop results scoring below this value")
	flag.IntVar(&opts.limit, "limit", 0, "Keep at most this many results (0 keeps all)")
	flag.IntVar(&opts.limit, "n", 0, "Keep at most this many results (shorthand)")
	flag.IntVar(&opts.workers, "workers", 0, "Rank candidates with this many goroutines")
	flag.IntVar(&opts.workers, "j", 0, "Rank candidates with this many goroutines (shorthand)")
	flag.BoolVar(&opts.fold, "fold", false, "Fold diacritics before matching")
	flag.BoolVar(&opts.best, "best", false, "Print only the single best candidate")
	flag.BoolVar(&opts.best, "b", false, "Print only the single best candidate (shorthand)")
	flag.BoolVar(&opts.jsonOut, "json", false, "Write results as JSON")
	flag.StringVar(&opts.jsonPath, "json-path", "", "Extract candidates from JSON input at this path (e.g. items.#.name)")
	flag.BoolVar(&opts.highlight, "highlight", false, "Underline matched runes in plain output")
	flag.BoolVar(&opts.watchMode, "watch", false, "Re-run when the candidates file, config, or scripts change")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "fuzzypick - fuzzy filtering and selection for line-oriented input\n\n")
		fmt.Fprintf(os.Stderr, "Usage: fuzzypick [options] PATTERN [FILE]\n\n")
		fmt.Fprintf(os.Stderr, "Candidates are read one per line from FILE, or from stdin when FILE is\n")
		fmt.Fprintf(os.Stderr, "\"-\" or absent. With -json-path the input is a JSON document instead and\n")
		fmt.Fprintf(os.Stderr, "the candidates are the strings that path selects.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ls | fuzzypick main              Rank entries matching 'main'\n")
		fmt.Fprintf(os.Stderr, "  fuzzypick -best lvl items.txt    Print only the best match\n")
		fmt.Fprintf(os.Stderr, "  fuzzypick -json-path items.#.name -json query api.json\n")
		fmt.Fprintf(os.Stderr, "  fuzzypick -watch -highlight err /var/log/app.txt\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("fuzzypick %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(exitMatched)
	}

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		flag.Usage()
		return opts, false
	}
	opts.pattern = args[0]
	if len(args) == 2 {
		opts.file = args[1]
	}
	return opts, true
}

// applyOverrides copies explicitly given flags over the loaded config.
// Flags the user did not touch leave the config values alone.
func applyOverrides(cfg *config.Config, opts options) {
	if opts.flagSet("strategy", "s") {
		cfg.Strategy = opts.strategy
	}
	if opts.flagSet("tiebreak") {
		cfg.TieBreak = opts.tieBreak
	}
	if opts.flagSet("min") {
		min := opts.minScore
		cfg.MinScore = &min
	}
	if opts.flagSet("limit", "n") {
		cfg.Limit = opts.limit
	}
	if opts.flagSet("workers", "j") {
		cfg.Workers = opts.workers
	}
	if opts.flagSet("fold") {
		cfg.FoldDiacritics = opts.fold
	}
	if opts.flagSet("scripts") {
		cfg.ScriptsDir = opts.scriptsDir
	}
}

// readCandidates loads the candidate set from path ("" or "-" means stdin).
// With a gjson path the input is parsed as JSON; otherwise one candidate
// per line, keeping empty lines so result indexes equal line numbers.
func readCandidates(path, jsonPath string) ([]string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading candidates: %w", err)
		}
	}
	if jsonPath != "" {
		return extractJSON(data, jsonPath)
	}
	return splitLines(data), nil
}

func splitLines(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func extractJSON(data []byte, path string) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("input is not valid JSON")
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil, nil
	}
	values := result.Array()
	items := make([]string, 0, len(values))
	for _, v := range values {
		items = append(items, v.String())
	}
	return items, nil
}

// session bundles everything a query needs so watch mode can swap parts
// out as files change.
type session struct {
	opts     options
	cfg      config.Config
	registry *fuzzy.Registry
	engine   *script.Engine
	selector *pick.Selector
	items    []string
}

func (s *session) runQuery() int {
	src := pick.Strings(s.items)

	if s.opts.best {
		idx := s.selector.Best(s.opts.pattern, src)
		if idx < 0 {
			return exitNoMatch
		}
		if s.opts.jsonOut {
			return writeJSON(bestResult{Index: idx, Text: s.items[idx]})
		}
		fmt.Println(s.items[idx])
		return exitMatched
	}

	results, err := s.rank(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if len(results) == 0 {
		return exitNoMatch
	}

	if s.opts.jsonOut {
		out := make([]rankedResult, len(results))
		for i, r := range results {
			out[i] = rankedResult{Index: r.Index, Score: r.Score, Text: s.items[r.Index], Offsets: r.Offsets}
		}
		return writeJSON(out)
	}

	for _, r := range results {
		text := s.items[r.Index]
		if s.opts.highlight && len(r.Offsets) > 0 {
			text = underline(text, r.Offsets)
		}
		fmt.Println(text)
	}
	return exitMatched
}

func (s *session) rank(src pick.Source) ([]pick.Ranked, error) {
	if s.cfg.Workers > 1 {
		return s.selector.RankContext(context.Background(), s.opts.pattern, src)
	}
	return s.selector.Rank(s.opts.pattern, src), nil
}

type bestResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type rankedResult struct {
	Index   int    `json:"index"`
	Score   int    `json:"score"`
	Text    string `json:"text"`
	Offsets []int  `json:"offsets,omitempty"`
}

func writeJSON(v any) int {
	if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	return exitMatched
}

// underline wraps matched runes in ANSI underline escapes, one escape pair
// per run of consecutive offsets.
func underline(text string, offsets []int) string {
	const (
		on  = "\x1b[4m"
		off = "\x1b[24m"
	)
	runes := []rune(text)
	marked := make(map[int]bool, len(offsets))
	for _, o := range offsets {
		if o >= 0 && o < len(runes) {
			marked[o] = true
		}
	}
	var sb strings.Builder
	active := false
	for i, r := range runes {
		switch {
		case marked[i] && !active:
			sb.WriteString(on)
			active = true
		case !marked[i] && active:
			sb.WriteString(off)
			active = false
		}
		sb.WriteRune(r)
	}
	if active {
		sb.WriteString(off)
	}
	return sb.String()
}

// watchLoop re-runs the query whenever the candidates file, the config
// file, or a strategy script changes. It returns on SIGINT or SIGTERM.
func (s *session) watchLoop() int {
	if s.opts.file == "" || s.opts.file == "-" {
		fmt.Fprintln(os.Stderr, "Error: -watch requires a candidates FILE")
		return exitError
	}

	absFile, err := filepath.Abs(s.opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	var absConfig string
	if s.opts.configPath != "" {
		if absConfig, err = filepath.Abs(s.opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}
	var absScripts string
	if s.cfg.ScriptsDir != "" {
		if absScripts, err = filepath.Abs(s.cfg.ScriptsDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}

	w, err := watch.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer w.Close()

	// Watch parent directories so editors that replace files via rename
	// are still seen.
	dirs := map[string]bool{filepath.Dir(absFile): true}
	if absConfig != "" {
		dirs[filepath.Dir(absConfig)] = true
	}
	if absScripts != "" {
		dirs[absScripts] = true
	}
	for dir := range dirs {
		if err := w.Watch(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: watching %s: %v\n", dir, err)
			return exitError
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	s.runQuery()

	for {
		select {
		case <-signals:
			return exitMatched
		case err, ok := <-w.Errors():
			if !ok {
				return exitMatched
			}
			fmt.Fprintf(os.Stderr, "Error: watch: %v\n", err)
		case event, ok := <-w.Events():
			if !ok {
				return exitMatched
			}
			if s.handleEvent(event, absFile, absConfig, absScripts) {
				s.runQuery()
			}
		}
	}
}

// handleEvent reloads whatever the event touches and reports whether the
// query should re-run. Reload failures keep the previous state so a
// half-saved file does not kill the session.
func (s *session) handleEvent(event watch.Event, absFile, absConfig, absScripts string) bool {
	switch {
	case event.Path == absFile:
		items, err := readCandidates(s.opts.file, s.opts.jsonPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		s.items = items
		// Scores are cached per pattern against a fixed source.
		s.selector.ClearCache()
		return true

	case absConfig != "" && event.Path == absConfig:
		if err := s.reloadConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		return true

	case absScripts != "" && filepath.Dir(event.Path) == absScripts:
		if !strings.EqualFold(filepath.Ext(event.Path), ".lua") {
			return false
		}
		if _, err := s.engine.LoadDir(s.cfg.ScriptsDir, s.registry); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		if err := s.rebuildSelector(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		return true

	default:
		return false
	}
}

func (s *session) reloadConfig() error {
	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return err
	}
	applyOverrides(&cfg, s.opts)
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	if s.cfg.ScriptsDir != "" {
		if _, err := s.engine.LoadDir(s.cfg.ScriptsDir, s.registry); err != nil {
			return err
		}
	}
	return s.rebuildSelector()
}

func (s *session) rebuildSelector() error {
	pickOpts, err := s.cfg.Build(s.registry)
	if err != nil {
		return err
	}
	s.selector = pick.New(pickOpts)
	return nil
}
