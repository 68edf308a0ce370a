// Package cli maps command-line invocations onto the model lifecycle and
// renders each outcome as a single JSON document.
package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/okian/recomodel/internal/config"
	"github.com/okian/recomodel/internal/domain/lifecycle"
)

// Option tokens understood in any position.
const (
	optUsers    = "n_users"
	optProducts = "n_products"
	optDBURI    = "db_uri"
)

// Command is one of Initialize, Recommend, Stats, Retrain or Help.
type Command interface {
	Name() string
	command()
}

// Initialize loads or trains the model and reports the outcome.
type Initialize struct{}

// Recommend asks for up to K items for ActorID. K == 0 selects the
// configured default.
type Recommend struct {
	ActorID string
	K       int
}

// Stats describes the ready model.
type Stats struct{}

// Retrain fits a new model regardless of the persisted one.
type Retrain struct{}

// Help lists the commands.
type Help struct{}

func (Initialize) Name() string { return "initialize" }
func (Recommend) Name() string  { return "recommend" }
func (Stats) Name() string      { return "stats" }
func (Retrain) Name() string    { return "retrain" }
func (Help) Name() string       { return "help" }

func (Initialize) command() {}
func (Recommend) command()  {}
func (Stats) command()      {}
func (Retrain) command()    {}
func (Help) command()       {}

// Commands lists the command vocabulary in display order.
var Commands = []string{"initialize", "recommend", "stats", "retrain", "help"}

// Invocation is a parsed command line.
type Invocation struct {
	Command   Command
	Targets   lifecycle.Targets
	Overrides map[string]string
}

// Parse splits args (without the program name) into a command, its
// positional arguments and key=value options. Options may appear anywhere.
// A token is an option only when its key is an option or configuration key;
// anything else, "user=7" included, stays positional.
func Parse(ctx context.Context, args []string) (Invocation, error) {
	inv := Invocation{Overrides: map[string]string{}}

	var positional, options []string
	for _, arg := range args {
		if isOption(ctx, arg) {
			options = append(options, arg)
			continue
		}
		positional = append(positional, arg)
	}

	if len(positional) == 0 {
		return Invocation{}, usageError(ErrNoCommand, "")
	}
	name, rest := positional[0], positional[1:]

	var (
		cmd    Command
		maxPos int
	)
	switch strings.ToLower(name) {
	case "initialize", "init":
		cmd = Initialize{}
	case "stats":
		cmd = Stats{}
	case "retrain":
		cmd = Retrain{}
	case "help", "-h", "--help":
		cmd = Help{}
	case "recommend":
		cmd, maxPos = Recommend{}, 2
	default:
		return Invocation{}, usageError(ErrUnknownCommand, name)
	}

	for _, opt := range options {
		key, value, _ := strings.Cut(opt, "=")
		if err := inv.option(strings.TrimSpace(key), value); err != nil {
			return Invocation{}, err
		}
	}

	if _, ok := cmd.(Recommend); ok {
		rec, err := parseRecommend(rest)
		if err != nil {
			return Invocation{}, err
		}
		cmd = rec
	}
	if len(rest) > maxPos {
		return Invocation{}, usageError(ErrInvalidArgument, rest[maxPos])
	}

	inv.Command = cmd
	return inv, nil
}

func isOption(ctx context.Context, arg string) bool {
	key, _, found := strings.Cut(arg, "=")
	if !found {
		return false
	}
	switch key = strings.TrimSpace(key); key {
	case optUsers, optProducts, optDBURI:
		return true
	default:
		return config.IsKey(ctx, key)
	}
}

func (inv *Invocation) option(key, value string) error {
	switch key {
	case optUsers:
		n, err := parseCount(key, value)
		if err != nil {
			return err
		}
		inv.Targets.Actors = &n
	case optProducts:
		n, err := parseCount(key, value)
		if err != nil {
			return err
		}
		inv.Targets.Items = &n
	case optDBURI:
		inv.Overrides["interaction_source_uri"] = value
	default:
		inv.Overrides[key] = value
	}
	return nil
}

func parseCount(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, usageError(ErrInvalidArgument, key+"="+value)
	}
	return n, nil
}

func parseRecommend(rest []string) (Recommend, error) {
	if len(rest) == 0 || strings.TrimSpace(rest[0]) == "" {
		return Recommend{}, usageError(ErrMissingArgument, "recommend <actor_id> [k]")
	}
	rec := Recommend{ActorID: strings.TrimSpace(rest[0])}
	if len(rest) > 1 {
		k, err := strconv.Atoi(rest[1])
		if err != nil || k <= 0 {
			return Recommend{}, usageError(ErrInvalidArgument, "k="+rest[1])
		}
		rec.K = k
	}
	return rec, nil
}

// Usage is the help text written to stderr.
const Usage = `usage: recomodel <command> [args...] [key=value...]

commands:
  initialize              load the persisted model or train a new one
  recommend <actor_id> [k] top-k unseen items for an actor
  stats                   describe the ready model
  retrain                 train a new model from current interactions
  help                    show this text

options (any position):
  n_users=<int>           actor count target
  n_products=<int>        item count target
  db_uri=<uri>            interaction source (mongodb://, sqlite://, memory://)
  <config_key>=<value>    any configuration key, e.g. min_interactions=3
`
