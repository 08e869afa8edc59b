package main

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/capvm"
	"go.dedis.ch/capvm/cli"
	"go.dedis.ch/capvm/cli/ucli"
	"go.dedis.ch/capvm/core/execution"
	"go.dedis.ch/capvm/core/execution/native"
	"go.dedis.ch/capvm/core/store"
	"go.dedis.ch/capvm/core/store/kv"
	"go.dedis.ch/capvm/core/store/mem"
	"golang.org/x/xerrors"
)

// bucketName is the bucket of the database holding the global state.
var bucketName = []byte("capvm")

const defaultTimeout = 5 * time.Second

func newApp(srvc *native.Service, out io.Writer) cli.Application {
	builder := ucli.NewBuilder("capvm", "run native contracts against a persistent global state",
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML configuration file",
		},
		cli.StringFlag{
			Name:  "db",
			Usage: "path to the database (default: " + defaultDB + ")",
		},
		cli.StringFlag{
			Name:  "account",
			Usage: "name of the account running the commands (default: " + defaultAccount + ")",
		},
		cli.Uint64Flag{
			Name:  "gas",
			Usage: "gas limit of a deployment",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "number of contract records kept in memory during a deployment",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "time to wait for the lock of the database",
			Value: defaultTimeout,
		},
	)

	cmd := builder.SetCommand("deploy")
	cmd.SetDescription("run an entry point of a module")
	cmd.SetFlags(
		cli.StringFlag{
			Name:     "contract",
			Usage:    "name of the module",
			Required: true,
		},
		cli.StringFlag{
			Name:  "entry",
			Usage: "entry point to run",
			Value: execution.DefaultEntry,
		},
		cli.StringSliceFlag{
			Name:  "arg",
			Usage: "argument as s:<string>, i:<integer>, b:<bool> or k:<named key>",
		},
		cli.BoolFlag{
			Name:  "dry-run",
			Usage: "run without saving the changes",
		},
		cli.StringFlag{
			Name:  "metrics",
			Usage: "write the metrics of the run to the file in the Prometheus text format",
		},
	)
	cmd.SetAction(deployAction{code: srvc, out: out}.Execute)

	cmd = builder.SetCommand("account")
	cmd.SetDescription("inspect the state of the account")

	sub := cmd.SetSubCommand("keys")
	sub.SetDescription("list the named keys of the account")
	sub.SetAction(keysAction{code: srvc, out: out}.Execute)

	sub = cmd.SetSubCommand("read")
	sub.SetDescription("read the value behind a named key of the account")
	sub.SetFlags(cli.StringFlag{
		Name:     "name",
		Usage:    "name of the key",
		Required: true,
	})
	sub.SetAction(readAction{code: srvc, out: out}.Execute)

	cmd = builder.SetCommand("modules")
	cmd.SetDescription("list the modules that can be deployed")
	cmd.SetAction(modulesAction{srvc: srvc, out: out}.Execute)

	return builder.Build()
}

// host is the environment of a command.
type host struct {
	db      kv.DB
	engine  *execution.Engine
	account string
}

// openHost opens the database of the configuration. A read-only host can run
// alongside other readers but fails if the database does not exist.
func openHost(flags cli.Flags, code execution.Service, readOnly bool) (host, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return host{}, err
	}

	opts := []kv.Option{kv.WithTimeout(flags.Duration("timeout"))}
	if readOnly {
		opts = append(opts, kv.WithReadOnly())
	}

	db, err := kv.New(cfg.DB, opts...)
	if err != nil {
		return host{}, xerrors.Errorf("failed to open database: %v", err)
	}

	engineOpts := []execution.Option{
		execution.WithBudget(cfg.Gas),
		execution.WithLogger(capvm.Logger),
	}

	if cfg.Cache > 0 {
		engineOpts = append(engineOpts, execution.WithCacheSize(cfg.Cache))
	}

	engine := execution.NewEngine(code, engineOpts...)

	return host{db: db, engine: engine, account: cfg.Account}, nil
}

// update runs the function on a snapshot staged over the database. The writes
// are applied in key order, in the same transaction, when the function
// returns without error.
func (h host) update(fn func(store.Snapshot) error) error {
	return h.db.Update(func(tx kv.WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(bucketName)
		if err != nil {
			return xerrors.Errorf("bucket: %v", err)
		}

		snap := kv.NewSnapshot(bucket)
		staged := mem.NewStaged(snap)

		err = fn(staged)
		if err != nil {
			return err
		}

		return staged.Commit(snap)
	})
}

// view runs the function on a staged snapshot of the database. The writes are
// discarded.
func (h host) view(fn func(store.Snapshot) error) error {
	return h.db.View(func(tx kv.ReadableTx) error {
		snap := mem.NewSnapshot()

		bucket := tx.GetBucket(bucketName)
		if bucket != nil {
			snap = mem.NewStaged(kv.NewSnapshot(bucket))
		}

		return fn(snap)
	})
}

func (h host) close() error {
	return h.db.Close()
}

// writeMetrics registers the collectors of the packages on a new registry and
// writes their values to the file.
func writeMetrics(path string) error {
	registry := prometheus.NewRegistry()

	for _, c := range capvm.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return xerrors.Errorf("failed to register: %v", err)
		}
	}

	err := prometheus.WriteToTextfile(path, registry)
	if err != nil {
		return xerrors.Errorf("failed to write metrics: %v", err)
	}

	return nil
}
