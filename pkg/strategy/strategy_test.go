package strategy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/relay/pkg/api"
	"github.com/petrijr/relay/pkg/executor"
)

func newRegistry(t *testing.T, p Profile, obs api.Observer) *Registry {
	t.Helper()

	r, err := New(executor.NewFactory(obs), p)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return r
}

func TestDefaultProfile_Sizing(t *testing.T) {
	p := DefaultProfile(4)

	require.Equal(t, api.ElasticPool(4, 8), p.Pools[api.CategoryGeneral])
	require.Equal(t, api.FixedPool(4), p.Pools[api.CategoryRequest])
	require.Len(t, p.Pools, 2)

	// Never sized below one worker.
	require.Equal(t, api.ElasticPool(1, 2), DefaultProfile(0).Pools[api.CategoryGeneral])
}

func TestRegistry_DefaultRoutesRequestMessagesToDedicatedUnit(t *testing.T) {
	r := newRegistry(t, DefaultProfile(2), nil)

	general, ok := r.Unit(api.CategoryGeneral)
	require.True(t, ok)
	request, ok := r.Unit(api.CategoryRequest)
	require.True(t, ok)
	require.NotSame(t, general, request)

	require.Equal(t, "processor-executor-general", general.Name())
	require.Equal(t, "processor-executor-request", request.Name())

	require.Same(t, request, r.Lookup(api.WorkloadRequestMessage))
	for _, w := range []string{"", "BroadcastMessageClientProcessor", "requestmessageclientprocessor", "InnerModuleMessageClientProcessor"} {
		require.Same(t, general, r.Lookup(w), "workload %q", w)
	}

	require.Equal(t, []*executor.Unit{general, request}, r.Units())
	require.Equal(t, "default", r.Profile())
}

func TestRegistry_LookupIsStableUnderConcurrency(t *testing.T) {
	r := newRegistry(t, DefaultProfile(2), nil)
	general, _ := r.Unit(api.CategoryGeneral)
	request, _ := r.Unit(api.CategoryRequest)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 16; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if (i+g)%3 == 0 {
					if r.Lookup(api.WorkloadRequestMessage) != request {
						errs <- "request workload resolved to the wrong unit"
						return
					}
					continue
				}
				if r.Lookup(fmt.Sprintf("Processor%d", i)) != general {
					errs <- "general workload resolved to the wrong unit"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}
}

func TestRegistry_PrewarmsEveryUnit(t *testing.T) {
	metrics := &api.BasicMetrics{}
	r := newRegistry(t, IsolatedProfile(4), metrics)

	require.Len(t, r.Units(), 3)
	for _, u := range r.Units() {
		stats := u.Stats()
		require.Equal(t, stats.Core, stats.Workers, "unit %s", u.Name())
		require.Equal(t, 0, u.QueueDepth())
	}

	// general 4 + request 4 + broadcast 2
	snap := metrics.Snapshot()
	require.Equal(t, int64(3), snap.PoolsCreated)
	require.Equal(t, int64(10), snap.LiveWorkers)

	broadcast, ok := r.Unit(api.CategoryBroadcast)
	require.True(t, ok)
	require.Same(t, broadcast, r.Lookup(api.WorkloadBroadcastMessage))
}

func TestRegistry_SharedRoutesEverythingToGeneral(t *testing.T) {
	r := newRegistry(t, SharedProfile(2), nil)

	general, _ := r.Unit(api.CategoryGeneral)
	_, ok := r.Unit(api.CategoryRequest)
	require.False(t, ok)

	require.Same(t, general, r.Lookup(api.WorkloadRequestMessage))
	require.Same(t, general, r.Lookup("anything"))
}

func TestRegistry_CustomClassifier(t *testing.T) {
	p := DefaultProfile(1)
	p.Name = "prefix"
	p.Classifier = api.ClassifierFunc(func(w string) api.Category {
		switch {
		case strings.HasPrefix(w, "Request"):
			return api.CategoryRequest
		case strings.HasPrefix(w, "Broadcast"):
			// No broadcast pool in this profile: falls back to general.
			return api.CategoryBroadcast
		}
		return api.CategoryGeneral
	})

	r := newRegistry(t, p, nil)
	general, _ := r.Unit(api.CategoryGeneral)
	request, _ := r.Unit(api.CategoryRequest)

	require.Same(t, request, r.Lookup("RequestAnything"))
	require.Same(t, general, r.Lookup("BroadcastAnything"))
	require.Same(t, general, r.Lookup("Other"))
}

func TestNew_InvalidProfileBuildsNothing(t *testing.T) {
	metrics := &api.BasicMetrics{}

	p := DefaultProfile(2).WithPool(api.CategoryRequest, api.ElasticPool(4, 2))
	r, err := New(executor.NewFactory(metrics), p)
	require.ErrorIs(t, err, api.ErrInvalidConfig)
	require.Nil(t, r)
	require.Equal(t, int64(0), metrics.Snapshot().PoolsCreated)

	_, err = New(executor.NewFactory(nil), Profile{Name: "empty"})
	require.ErrorIs(t, err, api.ErrInvalidConfig)

	bad := SharedProfile(1)
	bad.Classifier = api.MapClassifier{"X": api.CategoryRequest}
	_, err = New(executor.NewFactory(nil), bad)
	require.ErrorIs(t, err, api.ErrInvalidConfig)
}

func TestProfileFor(t *testing.T) {
	for _, k := range Kinds() {
		p, err := ProfileFor(k, 2)
		require.NoError(t, err)
		require.Equal(t, string(k), p.Name)
		require.NoError(t, p.Validate())
	}

	p, err := ProfileFor("", 2)
	require.NoError(t, err)
	require.Equal(t, string(KindDefault), p.Name)

	_, err = ProfileFor("round-robin", 2)
	require.ErrorIs(t, err, api.ErrInvalidConfig)
}

func TestProfile_WithReserved(t *testing.T) {
	p, err := DefaultProfile(1).WithReserved(map[string]api.Category{"ChatProcessor": api.CategoryRequest})
	require.NoError(t, err)

	r := newRegistry(t, p, nil)
	request, _ := r.Unit(api.CategoryRequest)
	require.Same(t, request, r.Lookup("ChatProcessor"))
	require.Same(t, request, r.Lookup(api.WorkloadRequestMessage))

	// The receiver is left untouched.
	require.Equal(t, api.CategoryGeneral, DefaultProfile(1).Classifier.Classify("ChatProcessor"))

	_, err = DefaultProfile(1).WithReserved(map[string]api.Category{"Fanout": api.CategoryBroadcast})
	require.ErrorIs(t, err, api.ErrInvalidConfig)

	_, err = DefaultProfile(1).WithReserved(map[string]api.Category{"X": "realtime"})
	require.ErrorIs(t, err, api.ErrInvalidConfig)

	custom := DefaultProfile(1)
	custom.Classifier = api.ClassifierFunc(func(string) api.Category { return api.CategoryGeneral })
	_, err = custom.WithReserved(map[string]api.Category{"X": api.CategoryRequest})
	require.ErrorIs(t, err, api.ErrInvalidConfig)
}

func TestRegistry_ShutdownIsTerminal(t *testing.T) {
	metrics := &api.BasicMetrics{}
	r := newRegistry(t, DefaultProfile(2), metrics)
	require.True(t, r.Ready())

	done := make(chan struct{})
	require.NoError(t, r.Lookup("x").Submit(func() { close(done) }))
	<-done

	require.NoError(t, r.Shutdown(context.Background()))
	require.False(t, r.Ready())

	for _, u := range r.Units() {
		require.True(t, u.Stats().Closed)
		require.ErrorIs(t, u.Submit(func() {}), api.ErrShutdown)
	}

	require.Equal(t, int64(2), metrics.Snapshot().PoolsShutdown)
	require.Eventually(t, func() bool { return metrics.Snapshot().LiveWorkers == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Shutdown(context.Background()))
	require.Equal(t, int64(2), metrics.Snapshot().PoolsShutdown)
}
