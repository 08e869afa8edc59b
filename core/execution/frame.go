package execution

import (
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.dedis.ch/capvm/core/contract"
	"go.dedis.ch/capvm/core/execution/gas"
	"go.dedis.ch/capvm/core/state"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

// deployment is the environment shared by the frames of a single top-level
// deployment.
type deployment struct {
	code     Service
	schedule gas.Schedule
	journal  *state.Journal
	state    *state.State
	registry *contract.Registry
	gen      *uref.Generator
	meter    gas.Meter
	logger   zerolog.Logger

	// fault is set when the store failed while undoing a trap, after which the
	// deployment cannot be trusted anymore.
	fault error
}

// frame is a call frame.
//
// - implements execution.Context
type frame struct {
	dep    *deployment
	depth  int
	module string
	entry  string
	args   value.Args
	keys   uref.NamedKeys
	known  map[uref.Address]uref.AccessRights
	status FrameState
	logger zerolog.Logger

	// fn replaces the entry point of the module when set.
	fn EntryPoint

	ret      value.Value
	retExtra []uref.URef
}

func (d *deployment) newFrame(depth int, module, entry string, keys uref.NamedKeys,
	args value.Args) *frame {

	f := &frame{
		dep:    d,
		depth:  depth,
		module: module,
		entry:  entry,
		args:   args,
		keys:   keys.Clone(),
		known:  make(map[uref.Address]uref.AccessRights),
		status: FrameCreated,
		logger: d.logger.With().
			Int("depth", depth).
			Str("module", module).
			Str("entry", entry).
			Logger(),
	}

	for _, key := range f.keys.Keys() {
		ref, err := key.ToURef()
		if err == nil {
			f.grant(ref)
		}
	}

	return f
}

// run executes the frame to completion. A trap undoes the writes of the frame
// and is returned as a TrapError.
func (d *deployment) run(f *frame) (value.Value, error) {
	promCalls.Inc()
	promDepth.Observe(float64(f.depth))

	f.logger.Debug().Int("args", f.args.Len()).Msg("frame started")

	d.journal.Begin()
	f.status = FrameRunning

	err := d.exec(f)
	if err != nil {
		f.status = FrameTrapped

		rerr := d.journal.Rollback()
		if rerr != nil && d.fault == nil {
			d.fault = rerr
		}

		kind := KindOf(err)
		promTraps.WithLabelValues(kind).Inc()

		f.logger.Warn().Err(err).Str("kind", kind).Msg("frame trapped")

		return nil, &TrapError{
			Depth: f.depth,
			Entry: f.entry,
			Err:   err,
		}
	}

	d.journal.Commit()
	f.status = FrameReturned

	f.logger.Debug().Msg("frame returned")

	if f.ret == nil {
		return value.Unit{}, nil
	}

	return f.ret, nil
}

func (d *deployment) exec(f *frame) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		cause, ok := r.(error)
		if ok {
			err = xerrors.Errorf("entry point panicked: %w", cause)
		} else {
			err = xerrors.Errorf("entry point panicked: %v", r)
		}
	}()

	err = d.meter.Consume(d.schedule.Call)
	if err != nil {
		return err
	}

	// Arguments coming from the outside of the runtime must only carry
	// references that the frame already holds.
	for _, arg := range f.args {
		err = f.checkValue(arg)
		if err != nil {
			return xerrors.Errorf("argument: %w", err)
		}
	}

	fn := f.fn
	if fn == nil {
		fn, err = d.lookup(f.module, f.entry)
		if err != nil {
			return err
		}
	}

	return fn(f)
}

func (d *deployment) lookup(module, entry string) (EntryPoint, error) {
	mod, err := d.code.Get(module)
	if err != nil {
		return nil, err
	}

	fn, found := mod.EntryPoint(entry)
	if !found {
		return nil, xerrors.Errorf("'%s' in module '%s': %w", entry, module, ErrUnknownEntryPoint)
	}

	return fn, nil
}

func (f *frame) grant(refs ...uref.URef) {
	for _, ref := range refs {
		f.known[ref.Address()] |= ref.Rights()
	}
}

// check returns an error if the frame was not granted the reference with at
// least its rights.
func (f *frame) check(ref uref.URef) error {
	granted, found := f.known[ref.Address()]
	if !found || !granted.Contains(ref.Rights()) {
		return xerrors.Errorf("%v: %w", ref, ErrForgedReference)
	}

	return nil
}

func (f *frame) checkValue(v value.Value) error {
	for _, ref := range value.Refs(v) {
		err := f.check(ref)
		if err != nil {
			return err
		}
	}

	return nil
}

func (f *frame) checkKey(key uref.Key) error {
	switch key.Type() {
	case uref.KeyTypeHash:
		// Contract identities are public.
		return nil
	case uref.KeyTypeURef:
		ref, _ := key.ToURef()
		return f.check(ref)
	default:
		return xerrors.Errorf("%v: %w", key, uref.ErrNotURef)
	}
}

func (f *frame) prepare(cost uint64) error {
	if f.status != FrameRunning {
		return ErrFrameClosed
	}

	return f.dep.meter.Consume(cost)
}

// Depth implements execution.Context.
func (f *frame) Depth() int {
	return f.depth
}

// Args implements execution.Context.
func (f *frame) Args() value.Args {
	return f.args
}

// GetArg implements execution.Context.
func (f *frame) GetArg(index int, expected value.Kind) (value.Value, error) {
	return f.args.Get(index, expected)
}

// NewURef implements execution.Context.
func (f *frame) NewURef(initial value.Value) (uref.URef, error) {
	err := f.prepare(f.dep.schedule.Mint)
	if err != nil {
		return uref.URef{}, err
	}

	err = f.checkValue(initial)
	if err != nil {
		return uref.URef{}, err
	}

	ref, err := f.dep.state.Mint(f.dep.gen, initial)
	if err != nil {
		return uref.URef{}, err
	}

	f.grant(ref)

	f.logger.Trace().Stringer("uref", ref).Msg("reference minted")

	return ref, nil
}

// Attenuate implements execution.Context.
func (f *frame) Attenuate(ref uref.URef, rights uref.AccessRights) (uref.URef, error) {
	err := f.prepare(0)
	if err != nil {
		return uref.URef{}, err
	}

	err = f.check(ref)
	if err != nil {
		return uref.URef{}, err
	}

	weaker, err := ref.Attenuate(rights)
	if err != nil {
		return uref.URef{}, err
	}

	f.grant(weaker)

	return weaker, nil
}

// Read implements execution.Context. The references found in the value are
// granted to the frame.
func (f *frame) Read(ref uref.URef) (value.Value, error) {
	err := f.prepare(f.dep.schedule.Read)
	if err != nil {
		return nil, err
	}

	err = f.check(ref)
	if err != nil {
		return nil, err
	}

	v, err := f.dep.state.Read(ref)
	if err != nil {
		return nil, err
	}

	f.grant(value.Refs(v)...)

	return v, nil
}

// Write implements execution.Context.
func (f *frame) Write(ref uref.URef, v value.Value) error {
	err := f.prepare(f.dep.schedule.Write)
	if err != nil {
		return err
	}

	err = f.check(ref)
	if err != nil {
		return err
	}

	err = f.checkValue(v)
	if err != nil {
		return err
	}

	return f.dep.state.Write(ref, v)
}

// Add implements execution.Context.
func (f *frame) Add(ref uref.URef, v value.Value) error {
	err := f.prepare(f.dep.schedule.Add)
	if err != nil {
		return err
	}

	err = f.check(ref)
	if err != nil {
		return err
	}

	err = f.checkValue(v)
	if err != nil {
		return err
	}

	return f.dep.state.Add(ref, v)
}

// PutKey implements execution.Context.
func (f *frame) PutKey(name string, key uref.Key) error {
	err := f.prepare(f.dep.schedule.NamedKey)
	if err != nil {
		return err
	}

	err = f.checkKey(key)
	if err != nil {
		return err
	}

	f.keys.Bind(name, key)

	return nil
}

// GetKey implements execution.Context.
func (f *frame) GetKey(name string) (uref.Key, error) {
	err := f.prepare(f.dep.schedule.NamedKey)
	if err != nil {
		return uref.Key{}, err
	}

	return f.keys.Resolve(name)
}

// HasKey implements execution.Context.
func (f *frame) HasKey(name string) (bool, error) {
	err := f.prepare(f.dep.schedule.NamedKey)
	if err != nil {
		return false, err
	}

	return f.keys.Has(name), nil
}

// RemoveKey implements execution.Context.
func (f *frame) RemoveKey(name string) error {
	err := f.prepare(f.dep.schedule.NamedKey)
	if err != nil {
		return err
	}

	f.keys.Remove(name)

	return nil
}

// NamedKeys implements execution.Context.
func (f *frame) NamedKeys() uref.NamedKeys {
	return f.keys.Clone()
}

// StoreFunction implements execution.Context. The entry point must belong to
// the module of the frame.
func (f *frame) StoreFunction(entry string, keys uref.NamedKeys) (uref.Hash, error) {
	err := f.prepare(f.dep.schedule.StoreFunction)
	if err != nil {
		return uref.Hash{}, err
	}

	for _, key := range keys.Keys() {
		err = f.checkKey(key)
		if err != nil {
			return uref.Hash{}, err
		}
	}

	_, err = f.dep.lookup(f.module, entry)
	if err != nil {
		return uref.Hash{}, err
	}

	rec := contract.Record{
		Module:     f.module,
		EntryPoint: entry,
		NamedKeys:  keys.Clone(),
	}

	return f.dep.registry.Register(rec)
}

// CallContract implements execution.Context.
func (f *frame) CallContract(key uref.Key, args value.Args, extra ...uref.URef) (value.Value, error) {
	return f.Invoke(key, "", args, extra...)
}

// Invoke implements execution.Context. The arguments go through their
// canonical form before the callee sees them, and the references they carry
// are granted to the callee alongside the extra ones.
func (f *frame) Invoke(key uref.Key, entry string, args value.Args,
	extra ...uref.URef) (value.Value, error) {

	err := f.prepare(0)
	if err != nil {
		return nil, err
	}

	for _, arg := range args {
		err = f.checkValue(arg)
		if err != nil {
			return nil, err
		}
	}

	for _, ref := range extra {
		err = f.check(ref)
		if err != nil {
			return nil, err
		}
	}

	id, err := f.resolve(key)
	if err != nil {
		return nil, err
	}

	rec, err := f.dep.registry.Lookup(id)
	if err != nil {
		return nil, err
	}

	data, err := value.EncodeArgs(args)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode arguments: %v", err)
	}

	err = f.dep.meter.Consume(f.dep.schedule.PerByte * uint64(len(data)))
	if err != nil {
		return nil, err
	}

	calleeArgs, err := value.DecodeArgs(data)
	if err != nil {
		return nil, err
	}

	if entry == "" {
		entry = rec.EntryPoint
	}

	callee := f.dep.newFrame(f.depth+1, rec.Module, entry, rec.NamedKeys, calleeArgs)
	callee.grant(lo.FlatMap(calleeArgs, func(v value.Value, _ int) []uref.URef {
		return value.Refs(v)
	})...)
	callee.grant(extra...)

	ret, err := f.dep.run(callee)
	if err != nil {
		return nil, err
	}

	f.grant(value.Refs(ret)...)
	f.grant(callee.retExtra...)

	return ret, nil
}

// resolve returns the identity of the contract designated by the key, which
// is either the identity itself or a reference to a slot holding it.
func (f *frame) resolve(key uref.Key) (uref.Hash, error) {
	if key.Type() == uref.KeyTypeHash {
		return key.ToHash()
	}

	ref, err := key.ToURef()
	if err != nil {
		return uref.Hash{}, err
	}

	v, err := f.Read(ref)
	if err != nil {
		return uref.Hash{}, err
	}

	pointer, ok := v.(value.Key)
	if !ok {
		return uref.Hash{}, xerrors.Errorf("%v holds %v: %w", ref, v.Kind(), state.ErrTypeMismatch)
	}

	return pointer.ToHash()
}

// Ret implements execution.Context.
func (f *frame) Ret(v value.Value, extra ...uref.URef) error {
	err := f.prepare(0)
	if err != nil {
		return err
	}

	if f.ret != nil {
		return xerrors.New("return value already set")
	}

	err = f.checkValue(v)
	if err != nil {
		return err
	}

	for _, ref := range extra {
		err = f.check(ref)
		if err != nil {
			return err
		}
	}

	f.ret = v
	f.retExtra = extra

	return nil
}

// Revert implements execution.Context.
func (f *frame) Revert(code uint32) error {
	return RevertError{Code: code}
}

// Logger implements execution.Context.
func (f *frame) Logger() zerolog.Logger {
	return f.logger
}
