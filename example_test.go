package relay_test

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/petrijr/relay"
)

// ExampleHost demonstrates routing workloads through the default profile.
func ExampleHost() {
	ctx := context.Background()

	host := relay.NewHost(relay.DefaultProfile(2))
	if err := host.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = host.Stop(ctx) }()

	for _, workload := range []string{relay.WorkloadRequestMessage, "InnerModuleMessageClientProcessor"} {
		unit, err := host.Unit(workload)
		if err != nil {
			log.Fatal(err)
		}

		var wg sync.WaitGroup
		wg.Add(1)
		if err := host.Dispatch(workload, func() { defer wg.Done() }); err != nil {
			log.Fatal(err)
		}
		wg.Wait()

		fmt.Printf("%s -> %s\n", workload, unit.Name())
	}
	// Output:
	// RequestMessageClientProcessor -> processor-executor-request
	// InnerModuleMessageClientProcessor -> processor-executor-general
}

// ExampleBasicMetrics shows pre-warming reported through an observer.
func ExampleBasicMetrics() {
	ctx := context.Background()
	metrics := &relay.BasicMetrics{}

	host := relay.NewHost(relay.IsolatedProfile(4), relay.WithObserver(metrics))
	if err := host.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = host.Stop(ctx) }()

	snap := metrics.Snapshot()
	fmt.Println("pools:", snap.PoolsCreated)
	fmt.Println("live workers:", snap.LiveWorkers)
	// Output:
	// pools: 3
	// live workers: 10
}
