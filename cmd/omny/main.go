// Package main is the Omny CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/cli"
	"github.com/hyperjump/omny/internal/coach"
	"github.com/hyperjump/omny/internal/config"
	"github.com/hyperjump/omny/internal/extract"
	"github.com/hyperjump/omny/internal/indexer"
	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/render"
	"github.com/hyperjump/omny/internal/server"
	"github.com/hyperjump/omny/internal/watcher"
	"github.com/hyperjump/omny/pkg/utils"
)

var version = "dev"

// errUsage marks errors after which the usage text has already been printed.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(command string, args []string, stdin io.Reader, stdout io.Writer) error {
	switch command {
	case "server":
		return runServer(args)
	case "ingest":
		return runIngest(args, stdout)
	case "coach":
		return runChat(models.ModeCoach, args, stdin, stdout)
	case "ask":
		return runChat(models.ModeGeneral, args, stdin, stdout)
	case "vision":
		return runVision(args, stdout)
	case "profile":
		return runProfile(args, stdout)
	case "metrics":
		return runMetrics(args, stdout)
	case "export":
		return runExport(args, stdout)
	case "history":
		return runHistory(args, stdout)
	case "reset":
		return runReset(args, stdout)
	case "search":
		return runSearch(args, stdout)
	case "status":
		return runStatus(args, stdout)
	case "init":
		return runInit(args, stdout)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "omny version %s\n", version)
		return nil
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stdout, "Unknown command: %s\n", command)
		printUsage(stdout)
		return errUsage
	}
}

// commonFlags are accepted by every subcommand that opens the app.
type commonFlags struct {
	config *string
	debug  *bool
	output *string
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs, commonFlags{
		config: fs.String("config", defaultConfigPath, "config file path"),
		debug:  fs.Bool("debug", false, "enable debug logging"),
		output: fs.String("output", "text", "output format: text or json"),
	}
}

// setup loads config and builds the logger and app.
func setup(flags commonFlags, withKnowledge bool) (*app, func(), error) {
	cfg, _, err := loadConfig(*flags.config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || *flags.debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := newApp(cfg, logger, withKnowledge)
	cleanup := func() {
		a.Close()
		_ = logger.Sync()
	}
	return a, cleanup, nil
}

func printer(stdout io.Writer, flags commonFlags) (*cli.Printer, error) {
	format, err := cli.ParseFormat(*flags.output)
	if err != nil {
		return nil, err
	}
	return cli.NewPrinter(stdout, format), nil
}

// argsReorder moves flags that follow positional arguments to the front so
// flag.Parse sees them: "omny ask how much protein -output json".
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args so quoting is optional.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runServer(args []string) error {
	fs, flags := newFlagSet("server")
	ingest := fs.Bool("ingest", false, "ingest the knowledge directory before serving")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, true)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := a.logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.kb != nil && *ingest {
		stats, err := a.kb.indexer.IndexDirectory(ctx, a.cfg.Knowledge.Dir)
		if err != nil && !errors.Is(err, indexer.ErrNoDocuments) {
			return fmt.Errorf("ingest failed: %w", err)
		}
		logger.Info("knowledge ingested", zap.Int("indexed", stats.Indexed), zap.Int("skipped", stats.Skipped), zap.Int("chunks", stats.Chunks))
	}

	if a.kb != nil && a.cfg.Knowledge.Watch {
		supported := extract.NewExtractor(a.cfg.Knowledge.Extensions...)
		w := watcher.New(a.cfg.Knowledge.Dir, a.kb.indexer, supported.Supports,
			watcher.WithRecursive(a.cfg.Knowledge.RecursiveOrDefault()),
			watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop()
	}

	srv := server.NewServer(a.coach, a.knowledge(), a.cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func runIngest(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("ingest")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, true)
	if err != nil {
		return err
	}
	defer cleanup()
	if a.kb == nil {
		return errors.New("knowledge base could not be opened; see log for details")
	}
	p, err := printer(stdout, flags)
	if err != nil {
		return err
	}

	dir := a.knowledgeDir(fs.Arg(0))
	stats, err := a.kb.indexer.IndexDirectory(context.Background(), dir)
	if errors.Is(err, indexer.ErrNoDocuments) {
		return fmt.Errorf("no supported documents in %s (extensions: %s)", dir, strings.Join(a.cfg.Knowledge.Extensions, ", "))
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if p.Format() == cli.FormatJSON {
		return p.JSON(stats)
	}
	fmt.Fprintf(stdout, "Ingested %s: %d indexed, %d unchanged, %d failed, %d removed (%d chunks)\n",
		dir, stats.Indexed, stats.Skipped, stats.Failed, stats.Removed, stats.Chunks)
	return nil
}

// runChat sends one message, or runs an interactive session when no message is
// given and stdin is a terminal.
func runChat(mode models.Mode, args []string, stdin io.Reader, stdout io.Writer) error {
	fs, flags := newFlagSet(string(mode))
	if err := fs.Parse(argsReorder(args)); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, mode == models.ModeGeneral)
	if err != nil {
		return err
	}
	defer cleanup()
	p, err := printer(stdout, flags)
	if err != nil {
		return err
	}
	send := func(ctx context.Context, msg string) (coach.Reply, error) {
		if mode == models.ModeCoach {
			return a.coach.Coach(ctx, msg)
		}
		return a.coach.Ask(ctx, msg)
	}
	ctx := context.Background()

	if msg := joinArgs(fs.Args()); msg != "" {
		return sendAndPrint(ctx, p, send, msg)
	}
	if f, ok := stdin.(*os.File); ok && cli.IsTerminal(f) {
		return chatLoop(ctx, p, send, stdin, stdout)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	return sendAndPrint(ctx, p, send, string(data))
}

type sendFunc func(ctx context.Context, msg string) (coach.Reply, error)

func sendAndPrint(ctx context.Context, p *cli.Printer, send sendFunc, msg string) error {
	reply, err := send(ctx, msg)
	if err != nil {
		if errors.Is(err, coach.ErrEmptyRequest) {
			return errors.New("message is required")
		}
		return err
	}
	if err := p.Reply(reply.Text); err != nil {
		return err
	}
	if reply.PlanAvailable && p.Format() == cli.FormatText {
		fmt.Fprintln(os.Stderr, "A plan is ready: run 'omny export' to save it as a PDF.")
	}
	return nil
}

func chatLoop(ctx context.Context, p *cli.Printer, send sendFunc, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := sendAndPrint(ctx, p, send, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func runVision(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("vision")
	text := fs.String("text", "", "question or context for the image or menu")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return errUsage
	}
	var att *coach.Attachment
	if path := fs.Arg(0); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		att = &coach.Attachment{Name: filepath.Base(path), MimeType: mimeType(path, data), Data: data}
	}
	a, cleanup, err := setup(flags, false)
	if err != nil {
		return err
	}
	defer cleanup()
	p, err := printer(stdout, flags)
	if err != nil {
		return err
	}
	reply, err := a.coach.Analyze(context.Background(), att, *text)
	if errors.Is(err, coach.ErrEmptyRequest) {
		return errors.New("a file or -text is required")
	}
	if err != nil {
		return err
	}
	return p.Reply(reply.Text)
}

func mimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}

func runProfile(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("profile")
	age := fs.Int("age", 0, "age in years")
	weight := fs.Float64("weight", 0, "weight in kg")
	height := fs.Float64("height", 0, "height in cm")
	gender := fs.String("gender", "", "male or female")
	goal := fs.String("goal", "", "lose_fat, build_muscle or maintain")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, false)
	if err != nil {
		return err
	}
	defer cleanup()
	p, err := printer(stdout, flags)
	if err != nil {
		return err
	}

	profile := a.coach.Profile()
	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "age":
			profile.Age = *age
		case "weight":
			profile.Weight = *weight
		case "height":
			profile.Height = *height
		case "gender":
			profile.Gender = *gender
		case "goal":
			profile.Goal = *goal
		default:
			return
		}
		changed = true
	})
	if changed {
		if profile, err = a.coach.SaveProfile(profile); err != nil {
			return err
		}
	}
	return p.Metrics(profile, a.coach.Metrics())
}

func runMetrics(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("metrics")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, false)
	if err != nil {
		return err
	}
	defer cleanup()
	p, err := printer(stdout, flags)
	if err != nil {
		return err
	}
	return p.Metrics(a.coach.Profile(), a.coach.Metrics())
}

func runExport(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("export")
	out := fs.String("out", render.PlanFilename, "output PDF path")
	from := fs.String("from", "", "markdown file to render instead of the latest coach plan")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, false)
	if err != nil {
		return err
	}
	defer cleanup()

	var text string
	if *from != "" {
		data, err := os.ReadFile(*from)
		if err != nil {
			return err
		}
		text = string(data)
	} else {
		plan, ok := a.coach.LatestPlan()
		if !ok {
			return errors.New("no plan to export; ask the coach for one first")
		}
		text = plan
	}
	pdf, err := a.coach.ExportPlan(text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, pdf, 0644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Plan saved to %s\n", *out)
	return nil
}

func runHistory(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("history")
	mode := fs.String("mode", string(models.ModeCoach), "conversation: coach or general")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	m := models.Mode(*mode)
	if m != models.ModeCoach && m != models.ModeGeneral {
		return fmt.Errorf("unknown mode %q (want coach or general)", *mode)
	}
	a, cleanup, err := setup(flags, false)
	if err != nil {
		return err
	}
	defer cleanup()
	p, err := printer(stdout, flags)
	if err != nil {
		return err
	}
	t := a.coach.Transcripts()
	return p.Transcript(m, t.Messages(m))
}

func runReset(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("reset")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a, cleanup, err := setup(flags, false)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := a.coach.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Chat history cleared.")
	return nil
}

func runSearch(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("search")
	serverURL := fs.String("server", "", "server URL; empty opens the knowledge base directly")
	k := fs.Int("k", models.DefaultTopK, "number of chunks")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return errUsage
	}
	query := &models.SearchQuery{Query: joinArgs(fs.Args()), K: *k}
	if err := query.Validate(); err != nil {
		fmt.Fprintln(stdout, "Usage: omny search [flags] <query>")
		return errUsage
	}
	format, err := cli.ParseFormat(*flags.output)
	if err != nil {
		return err
	}
	p := cli.NewPrinter(stdout, format)

	if *serverURL != "" {
		var resp models.SearchResponse
		if err := postJSON(*serverURL+"/api/v1/knowledge/search", query, &resp); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return p.SearchResults(&resp)
	}

	a, cleanup, err := setup(flags, true)
	if err != nil {
		return err
	}
	defer cleanup()
	if a.kb == nil {
		return errors.New("knowledge base could not be opened; see log for details")
	}
	resp, err := a.kb.searcher.Query(context.Background(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return p.SearchResults(resp)
}

var statusKeys = []string{
	"knowledge_loaded", "documents", "chunks", "vector_index_size",
	"embedding_dimensions", "disk_usage_bytes", "profile", "chat_model", "vision_model",
}

func runStatus(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("status")
	serverURL := fs.String("server", "", "server URL; empty reads local state")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	format, err := cli.ParseFormat(*flags.output)
	if err != nil {
		return err
	}
	p := cli.NewPrinter(stdout, format)

	status := map[string]interface{}{}
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		return p.Status(statusKeys, status)
	}

	a, cleanup, err := setup(flags, true)
	if err != nil {
		return err
	}
	defer cleanup()
	status["knowledge_loaded"] = a.kb != nil
	if a.kb != nil {
		ctx := context.Background()
		docs, err := a.kb.storage.CountDocuments(ctx)
		if err != nil {
			return err
		}
		chunks, err := a.kb.storage.CountChunks(ctx)
		if err != nil {
			return err
		}
		status["documents"] = docs
		status["chunks"] = chunks
		status["vector_index_size"] = a.kb.vectors.Size()
		status["embedding_dimensions"] = a.kb.vectors.Dimensions()
	}
	status["profile"] = a.cfg.Data.ProfilePath()
	status["chat_model"] = a.cfg.LLM.ChatModel
	status["vision_model"] = a.cfg.LLM.VisionModel
	return p.Status(statusKeys, status)
}

func runInit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("config", defaultConfigPath, "config file to create")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *path)
	}
	abs, err := filepath.Abs(*path)
	if err != nil {
		return err
	}
	cfg, err := config.Default(filepath.Dir(abs))
	if err != nil {
		return err
	}
	if err := config.Save(*path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", *path)
	return nil
}

func postJSON(url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `omny - AI fitness coach with a local knowledge base

Usage:
  omny server [flags]               Start the HTTP API
  omny coach [flags] [message]      Talk to the coach (interactive when no message)
  omny ask [flags] [question]       Ask a general question answered from the knowledge base
  omny vision [flags] <file>        Analyze a meal photo or restaurant menu PDF
  omny profile [flags]              Show or update the profile
  omny metrics [flags]              Show BMR and macro targets
  omny export [flags]               Save the latest coach plan as a PDF
  omny history [flags]              Show a conversation
  omny reset [flags]                Clear both conversations
  omny ingest [flags] [dir]         Ingest the knowledge directory
  omny search [flags] <query>       Search the knowledge base
  omny status [flags]               Show knowledge base status
  omny init [flags]                 Write a default config file
  omny version                      Show version
  omny help                         Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml, built-in defaults when missing)
  --debug            Enable debug logging
  --output string    Output format: text or json (default: text)

Server Flags:
  --ingest           Ingest the knowledge directory before serving

Profile Flags:
  --age int --weight float --height float --gender string --goal string

Vision Flags:
  --text string      Question or context for the upload

Export Flags:
  --out string       Output PDF path (default: Omny_Fitness_Plan.pdf)
  --from string      Render this markdown file instead of the latest plan

History Flags:
  --mode string      coach or general (default: coach)

Search/Status Flags:
  --server string    Query a running server instead of opening the knowledge base
  --k int            Number of chunks (search only, default: 3)

Examples:
  omny init
  omny ingest ./knowledge_base
  omny profile --age 30 --weight 80 --height 180 --gender male --goal build_muscle
  omny coach "Build me a 3 month hypertrophy plan"
  omny ask how much protein do I need
  omny vision --text "is this a good post-workout meal?" lunch.jpg
  omny export --out plan.pdf
  omny server --ingest`)
}
