package counter_test

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.dedis.ch/capvm/contracts/counter"
	"go.dedis.ch/capvm/core/execution"
	"go.dedis.ch/capvm/core/execution/native"
	"go.dedis.ch/capvm/core/store/mem"
)

func ExampleRegisterContract() {
	srvc := native.NewExecution()
	counter.RegisterContract(srvc)

	engine := execution.NewEngine(srvc, execution.WithLogger(zerolog.Nop()))
	snap := mem.NewSnapshot()

	deploys := []execution.Deploy{
		{Account: "alice", Module: counter.ModuleName},
		{Account: "alice", Module: counter.ModuleName, Entry: "bump"},
		{Account: "alice", Module: counter.ModuleName, Entry: "bump"},
	}

	for _, d := range deploys {
		res, err := engine.Deploy(snap, d)
		if err != nil {
			panic("failed to deploy: " + err.Error())
		}

		fmt.Println(res.Accepted, res.Return)
	}

	// Output: true ()
	// true 1
	// true 2
}
