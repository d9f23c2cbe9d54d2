package executor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/relay/pkg/api"
)

// goExecutor starts one goroutine per task and exposes no introspection.
type goExecutor struct {
	wg sync.WaitGroup
}

func (e *goExecutor) Execute(task api.Task) error {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		task()
	}()
	return nil
}

func (e *goExecutor) Shutdown(ctx context.Context) error {
	e.wg.Wait()
	return nil
}

func TestNewUnit_PanicsOnNilExecutor(t *testing.T) {
	require.Panics(t, func() { NewUnit("x", 1, nil) })
}

func TestUnit_WithoutIntrospectionReportsZeroDepth(t *testing.T) {
	exec := &goExecutor{}
	u := NewUnit("plain", 7, exec)

	require.Equal(t, "plain", u.Name())
	require.Equal(t, 7, u.ID())
	require.Equal(t, "plain", u.String())

	block := make(chan struct{})
	var started sync.WaitGroup
	started.Add(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, u.Submit(func() {
			started.Done()
			<-block
		}))
	}
	started.Wait()

	require.Equal(t, 0, u.QueueDepth())
	require.Equal(t, api.PoolStats{Name: "plain"}, u.Stats())

	close(block)
	require.NoError(t, u.Shutdown(context.Background()))
}

func TestUnit_SubmitNil(t *testing.T) {
	u := NewUnit("plain", 1, &goExecutor{})
	require.ErrorIs(t, u.Submit(nil), api.ErrNilTask)
}
