package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.dedis.ch/capvm/cli"
	"go.dedis.ch/capvm/core/execution"
	"go.dedis.ch/capvm/core/execution/native"
	"go.dedis.ch/capvm/core/store"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

// deployAction runs a deployment for the account and prints its result.
type deployAction struct {
	code execution.Service
	out  io.Writer
}

// Execute implements cli.Action. The metrics are written even if the
// deployment is rejected.
func (a deployAction) Execute(flags cli.Flags) error {
	dryRun := flags.Bool("dry-run")

	h, err := openHost(flags, a.code, dryRun)
	if err != nil {
		return err
	}

	defer h.close()

	run := h.update
	if dryRun {
		run = h.view
	}

	err = run(func(snap store.Snapshot) error {
		keys, err := h.engine.NamedKeys(snap, h.account)
		if err != nil {
			return err
		}

		args, err := parseArgs(flags.StringSlice("arg"), keys)
		if err != nil {
			return err
		}

		res, err := h.engine.Deploy(snap, execution.Deploy{
			Account: h.account,
			Module:  flags.String("contract"),
			Entry:   flags.String("entry"),
			Args:    args,
		})
		if err != nil {
			return xerrors.Errorf("failed to deploy: %v", err)
		}

		if res.Accepted {
			fmt.Fprintf(a.out, "accepted: %v (gas %d)\n", res.Return, res.GasUsed)
		} else {
			fmt.Fprintf(a.out, "rejected: %s at depth %d: %s (gas %d)\n",
				res.Kind, res.Depth, res.Message, res.GasUsed)
		}

		return nil
	})
	if err != nil {
		return err
	}

	path := flags.String("metrics")
	if path != "" {
		return writeMetrics(path)
	}

	return nil
}

// keysAction prints the named keys of the account.
type keysAction struct {
	code execution.Service
	out  io.Writer
}

// Execute implements cli.Action.
func (a keysAction) Execute(flags cli.Flags) error {
	h, err := openHost(flags, a.code, true)
	if err != nil {
		return err
	}

	defer h.close()

	return h.view(func(snap store.Snapshot) error {
		keys, err := h.engine.NamedKeys(snap, h.account)
		if err != nil {
			return err
		}

		for _, name := range keys.Names() {
			key, _ := keys.Resolve(name)
			fmt.Fprintf(a.out, "%s\t%v\n", name, key)
		}

		return nil
	})
}

// readAction prints the value behind a named key of the account.
type readAction struct {
	code execution.Service
	out  io.Writer
}

// Execute implements cli.Action.
func (a readAction) Execute(flags cli.Flags) error {
	h, err := openHost(flags, a.code, true)
	if err != nil {
		return err
	}

	defer h.close()

	return h.view(func(snap store.Snapshot) error {
		v, err := h.engine.Query(snap, h.account, flags.String("name"))
		if err != nil {
			return xerrors.Errorf("failed to read: %v", err)
		}

		fmt.Fprintln(a.out, v)

		return nil
	})
}

// modulesAction prints the modules registered in the code service.
type modulesAction struct {
	srvc *native.Service
	out  io.Writer
}

// Execute implements cli.Action.
func (a modulesAction) Execute(flags cli.Flags) error {
	for _, name := range a.srvc.Names() {
		fmt.Fprintln(a.out, name)
	}

	return nil
}

// parseArgs returns the arguments of their textual form. A named key is
// resolved in the keys of the account.
func parseArgs(raw []string, keys uref.NamedKeys) (value.Args, error) {
	args := make(value.Args, len(raw))

	for i, arg := range raw {
		prefix, content, found := strings.Cut(arg, ":")
		if !found {
			return nil, xerrors.Errorf("argument '%s' has no type", arg)
		}

		switch prefix {
		case "s":
			args[i] = value.String(content)
		case "i":
			n, err := strconv.ParseInt(content, 10, 64)
			if err != nil {
				return nil, xerrors.Errorf("invalid integer '%s': %v", content, err)
			}

			args[i] = value.Int(n)
		case "b":
			b, err := strconv.ParseBool(content)
			if err != nil {
				return nil, xerrors.Errorf("invalid boolean '%s': %v", content, err)
			}

			args[i] = value.Bool(b)
		case "k":
			key, err := keys.Resolve(content)
			if err != nil {
				return nil, xerrors.Errorf("invalid key: %w", err)
			}

			args[i] = value.NewKey(key)
		default:
			return nil, xerrors.Errorf("unknown argument type '%s'", prefix)
		}
	}

	return args, nil
}
