// Package ucli implements the cli builder on top of urfave/cli.
package ucli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/capvm/cli"
)

// Builder builds an urfave application out of commands and global flags.
//
// - implements cli.Builder
type Builder struct {
	name     string
	usage    string
	flags    []cli.Flag
	commands []*cmdBuilder
}

// NewBuilder returns a builder for an application with the name and usage
// line. The flags are global: they are given before the command and are
// visible to the actions of every command and subcommand.
func NewBuilder(name, usage string, flags ...cli.Flag) cli.Builder {
	return &Builder{
		name:  name,
		usage: usage,
		flags: flags,
	}
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	cmd := &cmdBuilder{name: name}
	b.commands = append(b.commands, cmd)

	return cmd
}

// Build implements cli.Builder.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:     b.name,
		Usage:    b.usage,
		Flags:    buildFlags(b.flags),
		Commands: buildCommands(b.commands),
	}

	app.Setup()

	return app
}

// cmdBuilder holds the definition of a command until the application is
// built.
//
// - implements cli.CommandBuilder
type cmdBuilder struct {
	name        string
	description string
	action      cli.Action
	flags       []cli.Flag
	subcommands []*cmdBuilder
}

// SetDescription implements cli.CommandBuilder.
func (b *cmdBuilder) SetDescription(value string) {
	b.description = value
}

// SetFlags implements cli.CommandBuilder.
func (b *cmdBuilder) SetFlags(flags ...cli.Flag) {
	b.flags = flags
}

// SetAction implements cli.CommandBuilder.
func (b *cmdBuilder) SetAction(action cli.Action) {
	b.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (b *cmdBuilder) SetSubCommand(name string) cli.CommandBuilder {
	sub := &cmdBuilder{name: name}
	b.subcommands = append(b.subcommands, sub)

	return sub
}

func buildCommands(cmds []*cmdBuilder) []*urfave.Command {
	commands := make([]*urfave.Command, len(cmds))

	for i, cmd := range cmds {
		commands[i] = &urfave.Command{
			Name:        cmd.name,
			Usage:       cmd.description,
			Flags:       buildFlags(cmd.flags),
			Action:      makeAction(cmd.action),
			Subcommands: buildCommands(cmd.subcommands),
		}
	}

	return commands
}

// buildFlags converts the flag definitions to urfave flags. It panics on an
// unknown definition.
func buildFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, len(flags))

	for i, f := range flags {
		switch e := f.(type) {
		case cli.StringFlag:
			res[i] = &urfave.StringFlag{
				Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value,
			}
		case cli.StringSliceFlag:
			res[i] = &urfave.StringSliceFlag{
				Name: e.Name, Usage: e.Usage, Required: e.Required,
				Value: urfave.NewStringSlice(e.Value...),
			}
		case cli.BoolFlag:
			res[i] = &urfave.BoolFlag{
				Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value,
			}
		case cli.IntFlag:
			res[i] = &urfave.IntFlag{
				Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value,
			}
		case cli.Uint64Flag:
			res[i] = &urfave.Uint64Flag{
				Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value,
			}
		case cli.DurationFlag:
			res[i] = &urfave.DurationFlag{
				Name: e.Name, Usage: e.Usage, Required: e.Required, Value: e.Value,
			}
		default:
			panic(fmt.Sprintf("flag type '%T' not supported", f))
		}
	}

	return res
}

// makeAction adapts the action to urfave. The urfave context implements
// cli.Flags. A command without action, like a group of subcommands, prints
// its help.
func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
