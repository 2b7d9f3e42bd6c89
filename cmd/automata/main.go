// Package main is the entry point for the automata CLI: it runs, inspects
// and validates declarative automata from a local automata location.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	agentautomata "github.com/solarapparition/agent-automata"
	"github.com/solarapparition/agent-automata/logging"
)

const version = "0.2.0"

func init() {
	// Oracle credentials (OPENAI_API_KEY, ANTHROPIC_API_KEY) may live in a
	// local .env; existing env vars take priority. Silent if not found.
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		runAutomaton(args)
	case "inspect":
		inspectAutomaton(args)
	case "validate":
		validateAutomaton(args)
	case "version":
		fmt.Printf("automata version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: automata <command> [options]

Commands:
  run <id> <request>   Run an automaton with a request
  inspect <id>         Show an automaton's resolved definition
  validate <id>        Check that an automaton and its sub-automata build
  version              Print the version

Options (run, inspect, validate):
  -location string     Automata location (default "automata")
  -requester string    Requester identity for the audit trail (default "user")
  -verbose             Enable debug logging
`)
}

type cliOptions struct {
	location  string
	requester string
	verbose   bool
}

func parseFlags(name string, args []string) (cliOptions, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	opts := cliOptions{}
	fs.StringVar(&opts.location, "location", "automata", "automata location")
	fs.StringVar(&opts.requester, "requester", "user", "requester identity")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	_ = fs.Parse(args)
	return opts, fs.Args()
}

func newAutomata(opts cliOptions) *agentautomata.Automata {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	return agentautomata.New(opts.location, func(o *agentautomata.Options) {
		o.Logger = logging.NewTextLogger(os.Stderr, level)
	})
}

func runAutomaton(args []string) {
	opts, rest := parseFlags("run", args)
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "usage: automata run [options] <id> <request>")
		os.Exit(1)
	}
	id, request := rest[0], strings.Join(rest[1:], " ")

	// Ctrl-C interrupts the run; the orchestration core substitutes a
	// stand-in result and still records the event.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := newAutomata(opts).Run(ctx, id, opts.requester, request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(result)
}

func inspectAutomaton(args []string) {
	opts, rest := parseFlags("inspect", args)
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: automata inspect [options] <id>")
		os.Exit(1)
	}

	hub := newAutomata(opts).Hub()
	def, err := hub.Store().Load(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("id:          %s\n", def.ID)
	fmt.Printf("name:        %s\n", def.Name)
	fmt.Printf("description: %s\n", def.Description)
	fmt.Printf("runner:      %s\n", def.Runner)
	fmt.Printf("output:      %s\n", def.Output.Format)
	if len(def.Input.Requirements) > 0 {
		fmt.Println("input requirements:")
		for _, req := range def.Input.Requirements {
			fmt.Printf("  - %s\n", req)
		}
	}
	if len(def.SubAutomata) > 0 {
		fmt.Printf("sub-automata: %s\n", strings.Join(def.SubAutomata, ", "))
	}
}

func validateAutomaton(args []string) {
	opts, rest := parseFlags("validate", args)
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: automata validate [options] <id>")
		os.Exit(1)
	}

	automata := newAutomata(opts)
	if _, err := automata.Build(rest[0], opts.requester); err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}

	// Walk the delegation graph so missing sub-definitions surface now
	// rather than mid-run.
	store := automata.Hub().Store()
	seen := map[string]bool{}
	pending := []string{rest[0]}
	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		def, err := store.Load(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
			os.Exit(1)
		}
		pending = append(pending, def.SubAutomata...)
	}
	fmt.Printf("%s: ok (%d definitions)\n", rest[0], len(seen))
}
