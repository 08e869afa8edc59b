// Package main implements a host that runs native modules against a global
// state persisted in a bbolt database.
//
//	capvm --account alice deploy --contract counter
//	capvm --account alice deploy --contract counter --entry bump
//	capvm --account alice deploy --contract mailing --entry define
//	capvm --account alice deploy --contract mailing --arg s:Bob --arg s:hi
//	capvm --account alice deploy --contract counter --metrics capvm.prom
//	capvm --account alice account keys
//	capvm --account alice account read --name mail_feed
//	capvm modules
//
// The flags override the values of the optional YAML configuration file given
// with --config.
package main

import (
	"fmt"
	"os"

	"go.dedis.ch/capvm/contracts/counter"
	"go.dedis.ch/capvm/contracts/mailing"
	"go.dedis.ch/capvm/core/execution/native"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	srvc := native.NewExecution()
	counter.RegisterContract(srvc)
	mailing.RegisterContract(srvc)

	return newApp(srvc, os.Stdout).Run(args)
}
