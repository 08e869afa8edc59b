// Package mailing implements a native module for a mailing list. A list is
// a stored contract that hands out a feed to every subscriber and appends each
// published message to all of the feeds.
//
// Subscribers only receive a read-only reference to their feed, so that the
// list stays the only writer.
package mailing

import (
	"go.dedis.ch/capvm/core/execution"
	"go.dedis.ch/capvm/core/execution/native"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

const (
	// ModuleName is the name of the module.
	ModuleName = "mailing"

	// EntryDefine is the entry point that stores the list contract.
	EntryDefine = "define"

	// EntryList is the entry point of the stored list contract.
	EntryList = "list_ext"

	// KeyList is the name of the list in the named keys of the account that
	// defined it.
	KeyList = "mailing"

	// KeyFeed is the name under which the caller remembers its feed.
	KeyFeed = "mail_feed"

	// MethodSub subscribes a name and returns its feed, or nothing if the name
	// is already subscribed.
	MethodSub = "sub"

	// MethodPub appends a message to every feed.
	MethodPub = "pub"

	// Welcome is the first message of every feed.
	Welcome = "Welcome!"

	keySubscribers = "list"
	keyFeeds       = "feeds"

	defaultName    = "CasperLabs"
	defaultMessage = "Hello, World!"
)

// ErrAlreadySubscribed is returned by the caller when the list refuses the
// subscription.
var ErrAlreadySubscribed = xerrors.New("already subscribed")

// RegisterContract registers the mailing module to the given execution
// service.
func RegisterContract(exec *native.Service) {
	exec.Set(ModuleName, NewModule())
}

// NewModule returns the entry points of the module.
func NewModule() native.Module {
	return native.Module{
		EntryDefine:            define,
		EntryList:              listExt,
		execution.DefaultEntry: call,
	}
}

// define mints the subscribers and the feeds of a new list, then stores the
// list contract.
func define(ctx execution.Context) error {
	subscribers, err := ctx.NewURef(value.List{})
	if err != nil {
		return err
	}

	feeds, err := ctx.NewURef(value.Map{})
	if err != nil {
		return err
	}

	keys := uref.NewNamedKeys()
	keys.Bind(keySubscribers, uref.NewURefKey(subscribers))
	keys.Bind(keyFeeds, uref.NewURefKey(feeds))

	hash, err := ctx.StoreFunction(EntryList, keys)
	if err != nil {
		return err
	}

	return ctx.PutKey(KeyList, uref.NewHashKey(hash))
}

func listExt(ctx execution.Context) error {
	subscribers, err := getRef(ctx, keySubscribers)
	if err != nil {
		return err
	}

	feeds, err := getRef(ctx, keyFeeds)
	if err != nil {
		return err
	}

	method, err := ctx.Args().String(0)
	if err != nil {
		return err
	}

	arg, err := ctx.Args().String(1)
	if err != nil {
		return err
	}

	switch method {
	case MethodSub:
		return subscribe(ctx, subscribers, feeds, arg)
	case MethodPub:
		return publish(ctx, subscribers, feeds, arg)
	default:
		return xerrors.Errorf("method '%s': %w", method, execution.ErrUnknownEntryPoint)
	}
}

func subscribe(ctx execution.Context, subscribers, feeds uref.URef, name string) error {
	current, err := readMap(ctx, feeds)
	if err != nil {
		return err
	}

	_, found := current.Get(value.String(name))
	if found {
		return ctx.Ret(value.None())
	}

	feed, err := ctx.NewURef(value.Strings(Welcome))
	if err != nil {
		return err
	}

	entry, err := value.NewMap(value.Entry{Key: value.String(name), Value: value.NewURef(feed)})
	if err != nil {
		return err
	}

	err = ctx.Add(feeds, entry)
	if err != nil {
		return err
	}

	err = appendTo(ctx, subscribers, value.String(name))
	if err != nil {
		return err
	}

	readOnly, err := ctx.Attenuate(feed, uref.Read)
	if err != nil {
		return err
	}

	logger := ctx.Logger()
	logger.Debug().Str("name", name).Msg("new subscriber")

	return ctx.Ret(value.Some(value.NewURef(readOnly)))
}

func publish(ctx execution.Context, subscribers, feeds uref.URef, message string) error {
	names, err := readList(ctx, subscribers)
	if err != nil {
		return err
	}

	current, err := readMap(ctx, feeds)
	if err != nil {
		return err
	}

	for _, name := range names {
		target, found := current.Get(name)
		if !found {
			return xerrors.Errorf("feed of %v: %w", name, value.ErrDeserialization)
		}

		key, ok := target.(value.Key)
		if !ok {
			return xerrors.Errorf("feed of %v is %v: %w", name, target.Kind(), value.ErrDeserialization)
		}

		feed, err := key.ToURef()
		if err != nil {
			return err
		}

		err = appendTo(ctx, feed, value.String(message))
		if err != nil {
			return err
		}
	}

	return nil
}

// call is the caller of a list defined by the same account: it subscribes,
// remembers its feed, publishes a message and returns the content of its
// feed. The name and the message can be given as arguments.
func call(ctx execution.Context) error {
	list, err := ctx.GetKey(KeyList)
	if err != nil {
		return err
	}

	name, err := optionalString(ctx, 0, defaultName)
	if err != nil {
		return err
	}

	message, err := optionalString(ctx, 1, defaultMessage)
	if err != nil {
		return err
	}

	ret, err := ctx.CallContract(list, value.NewArgs(value.String(MethodSub), value.String(name)))
	if err != nil {
		return err
	}

	opt, ok := ret.(value.Option)
	if !ok {
		return xerrors.Errorf("subscription returned %v: %w", ret.Kind(), value.ErrDeserialization)
	}

	sub, ok := opt.Get()
	if !ok {
		return xerrors.Errorf("name '%s': %w", name, ErrAlreadySubscribed)
	}

	feedKey, ok := sub.(value.Key)
	if !ok {
		return xerrors.Errorf("subscription holds %v: %w", sub.Kind(), value.ErrDeserialization)
	}

	err = ctx.PutKey(KeyFeed, feedKey.Key)
	if err != nil {
		return err
	}

	_, err = ctx.CallContract(list, value.NewArgs(value.String(MethodPub), value.String(message)))
	if err != nil {
		return err
	}

	feed, err := getRef(ctx, KeyFeed)
	if err != nil {
		return err
	}

	messages, err := ctx.Read(feed)
	if err != nil {
		return err
	}

	return ctx.Ret(messages)
}

func getRef(ctx execution.Context, name string) (uref.URef, error) {
	key, err := ctx.GetKey(name)
	if err != nil {
		return uref.URef{}, err
	}

	return key.ToURef()
}

func readMap(ctx execution.Context, ref uref.URef) (value.Map, error) {
	v, err := ctx.Read(ref)
	if err != nil {
		return value.Map{}, err
	}

	m, ok := v.(value.Map)
	if !ok {
		return value.Map{}, xerrors.Errorf("%v holds %v: %w", ref, v.Kind(), value.ErrDeserialization)
	}

	return m, nil
}

func readList(ctx execution.Context, ref uref.URef) (value.List, error) {
	v, err := ctx.Read(ref)
	if err != nil {
		return nil, err
	}

	l, ok := v.(value.List)
	if !ok {
		return nil, xerrors.Errorf("%v holds %v: %w", ref, v.Kind(), value.ErrDeserialization)
	}

	return l, nil
}

func appendTo(ctx execution.Context, ref uref.URef, item value.Value) error {
	l, err := readList(ctx, ref)
	if err != nil {
		return err
	}

	return ctx.Write(ref, append(l, item))
}

func optionalString(ctx execution.Context, index int, def string) (string, error) {
	if ctx.Args().Len() <= index {
		return def, nil
	}

	return ctx.Args().String(index)
}
