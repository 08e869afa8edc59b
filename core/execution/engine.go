package execution

import (
	"encoding/binary"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/capvm"
	"go.dedis.ch/capvm/core/contract"
	"go.dedis.ch/capvm/core/execution/gas"
	"go.dedis.ch/capvm/core/state"
	"go.dedis.ch/capvm/core/store"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// DefaultEntry is the entry point of a deployment when none is given.
const DefaultEntry = "call"

// DefaultBudget is the gas limit of a deployment when none is given.
const DefaultBudget uint64 = 10_000_000

// Option is the type of options to create an engine.
type Option func(*Engine)

// WithBudget sets the gas limit of every deployment. Zero means no limit, in
// which case nothing bounds the depth of nested calls and a recursive contract
// exhausts the stack of the host.
func WithBudget(limit uint64) Option {
	return func(e *Engine) {
		e.budget = limit
	}
}

// WithSchedule sets the cost of the host operations.
func WithSchedule(s gas.Schedule) Option {
	return func(e *Engine) {
		e.schedule = s
	}
}

// WithLogger sets the logger of the engine.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCacheSize sets the size of the cache of contract records of a
// deployment.
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		e.cacheSize = size
	}
}

// Engine runs deployments against a snapshot of the global state. The host is
// expected to run one deployment at a time on a given snapshot.
type Engine struct {
	code      Service
	budget    uint64
	schedule  gas.Schedule
	logger    zerolog.Logger
	cacheSize int
}

// NewEngine returns an engine that runs the modules of the code service.
func NewEngine(code Service, opts ...Option) *Engine {
	e := &Engine{
		code:      code,
		budget:    DefaultBudget,
		schedule:  gas.DefaultSchedule,
		logger:    capvm.Logger,
		cacheSize: 128,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Deploy runs the entry point of the module at depth zero with the named keys
// of the account. The named keys are saved back only when the deployment
// succeeds. The error is reserved to failures of the store: a trap is
// reported by the result.
func (e *Engine) Deploy(snap store.Snapshot, d Deploy) (Result, error) {
	entry := d.Entry
	if entry == "" {
		entry = DefaultEntry
	}

	return e.execute(snap, d.Account, d.Hash, func(dep *deployment, keys uref.NamedKeys) *frame {
		return dep.newFrame(0, d.Module, entry, keys, d.Args)
	})
}

// Invoke runs a stored contract on behalf of the account. The account session
// is the frame at depth zero, and the contract runs at depth one with its own
// named keys.
func (e *Engine) Invoke(snap store.Snapshot, c Call) (Result, error) {
	return e.execute(snap, c.Account, c.Hash, func(dep *deployment, keys uref.NamedKeys) *frame {
		f := dep.newFrame(0, "", "session", keys, c.Args)
		f.fn = func(ctx Context) error {
			ret, err := ctx.Invoke(uref.NewHashKey(c.Contract), c.Entry, ctx.Args())
			if err != nil {
				return err
			}

			return ctx.Ret(ret)
		}

		return f
	})
}

func (e *Engine) execute(snap store.Snapshot, name string, hash []byte,
	root func(*deployment, uref.NamedKeys) *frame) (Result, error) {

	acc, err := loadAccount(snap, name)
	if err != nil {
		return Result{}, xerrors.Errorf("failed to load account '%s': %v", name, err)
	}

	journal := state.NewJournal(snap)

	registry, err := contract.NewRegistry(journal, contract.WithCacheSize(e.cacheSize))
	if err != nil {
		return Result{}, xerrors.Errorf("failed to create registry: %v", err)
	}

	var meter gas.Meter = gas.NewMeter(e.budget)
	if e.budget == 0 {
		meter = gas.Unlimited()
	}

	dep := &deployment{
		code:     e.code,
		schedule: e.schedule,
		journal:  journal,
		state:    state.NewState(journal),
		registry: registry,
		gen:      uref.NewGenerator(seed(name, acc.nonce, hash)),
		meter:    meter,
		logger: e.logger.With().
			Str("deploy", xid.New().String()).
			Str("account", name).
			Logger(),
	}

	f := root(dep, acc.keys)

	ret, err := dep.run(f)
	if dep.fault != nil {
		return Result{}, xerrors.Errorf("failed to undo trap: %v", dep.fault)
	}

	res := Result{
		GasUsed: meter.Used(),
	}

	if err != nil {
		res.Message = err.Error()
		res.Kind = KindOf(err)

		origin := Origin(err)
		if origin != nil {
			res.Depth = origin.Depth
		}

		dep.logger.Info().
			Str("kind", res.Kind).
			Int("depth", res.Depth).
			Msg("deployment failed")
	} else {
		res.Accepted = true
		res.Return = ret

		acc.keys = f.keys

		dep.logger.Info().
			Uint64("gas", res.GasUsed).
			Msg("deployment accepted")
	}

	acc.nonce++

	err = saveAccount(snap, name, acc)
	if err != nil {
		return Result{}, xerrors.Errorf("failed to save account '%s': %v", name, err)
	}

	return res, nil
}

// NamedKeys returns the named keys of the account.
func (e *Engine) NamedKeys(snap store.Readable, account string) (uref.NamedKeys, error) {
	acc, err := loadAccount(snap, account)
	if err != nil {
		return uref.NamedKeys{}, xerrors.Errorf("failed to load account '%s': %v", account, err)
	}

	return acc.keys, nil
}

// Query returns the value behind the reference bound to the name in the named
// keys of the account.
func (e *Engine) Query(snap store.Snapshot, account, name string) (value.Value, error) {
	acc, err := loadAccount(snap, account)
	if err != nil {
		return nil, xerrors.Errorf("failed to load account '%s': %v", account, err)
	}

	key, err := acc.keys.Resolve(name)
	if err != nil {
		return nil, err
	}

	ref, err := key.ToURef()
	if err != nil {
		return nil, xerrors.Errorf("name '%s': %w", name, err)
	}

	return state.NewState(snap).Read(ref)
}

// seed returns the seed of the reference generator of a deployment. The nonce
// of the account makes it unique for every deployment of the account.
func seed(account string, nonce int64, hash []byte) []byte {
	buffer := make([]byte, 4+len(account)+8+len(hash))

	binary.LittleEndian.PutUint32(buffer, uint32(len(account)))
	copy(buffer[4:], account)
	binary.LittleEndian.PutUint64(buffer[4+len(account):], uint64(nonce))
	copy(buffer[12+len(account):], hash)

	digest := blake2b.Sum256(buffer)

	return digest[:]
}
