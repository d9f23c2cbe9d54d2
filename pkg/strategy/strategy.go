package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petrijr/relay/pkg/api"
	"github.com/petrijr/relay/pkg/executor"
)

// Strategy resolves a workload to the unit that services it.
//
// A Strategy is fully built before it is returned and is safe for
// concurrent use. Shutdown is terminal.
type Strategy interface {
	// Lookup returns the unit for workload. Workloads that do not map to a
	// reserved category resolve to the general-purpose unit.
	Lookup(workload string) *executor.Unit

	// Units returns every owned unit in creation order.
	Units() []*executor.Unit

	// Shutdown drains every owned unit.
	Shutdown(ctx context.Context) error
}

// Registry is the Strategy built from a Profile. It exclusively owns its
// units. The routing table is written once in New and only read afterwards.
type Registry struct {
	profile    string
	classifier api.Classifier
	general    *executor.Unit
	byCategory map[api.Category]*executor.Unit
	units      []*executor.Unit

	stopped      atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

var _ Strategy = (*Registry)(nil)

// New builds and pre-warms one unit per pool in p. If any pool fails to
// build, the units built so far are shut down and no Registry is returned.
func New(f *executor.Factory, p Profile) (*Registry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Classifier == nil {
		p.Classifier = api.MapClassifier{}
	}

	r := &Registry{
		profile:    p.Name,
		classifier: p.Classifier,
		byCategory: make(map[api.Category]*executor.Unit, len(p.Pools)),
	}

	for _, c := range api.Categories() {
		cfg, ok := p.Pools[c]
		if !ok {
			continue
		}
		u, err := f.Create(api.UnitName(c), cfg)
		if err != nil {
			_ = r.shutdownUnits(context.Background())
			return nil, fmt.Errorf("strategy %q: %w", p.Name, err)
		}
		r.byCategory[c] = u
		r.units = append(r.units, u)
	}
	r.general = r.byCategory[api.CategoryGeneral]

	return r, nil
}

// Profile returns the name of the profile the registry was built from.
func (r *Registry) Profile() string { return r.profile }

func (r *Registry) Lookup(workload string) *executor.Unit {
	if u, ok := r.byCategory[r.classifier.Classify(workload)]; ok {
		return u
	}
	return r.general
}

// Unit returns the unit serving c, if the profile built one.
func (r *Registry) Unit(c api.Category) (*executor.Unit, bool) {
	u, ok := r.byCategory[c]
	return u, ok
}

func (r *Registry) Units() []*executor.Unit {
	return append([]*executor.Unit(nil), r.units...)
}

// Ready reports whether the registry still accepts work.
func (r *Registry) Ready() bool {
	return !r.stopped.Load()
}

// Shutdown drains all units in parallel and returns their joined errors.
// Later calls return the first call's result.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.shutdownOnce.Do(func() {
		r.stopped.Store(true)
		r.shutdownErr = r.shutdownUnits(ctx)
	})
	return r.shutdownErr
}

func (r *Registry) shutdownUnits(ctx context.Context) error {
	errs := make([]error, len(r.units))

	var wg sync.WaitGroup
	for i, u := range r.units {
		i, u := i, u
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = u.Shutdown(ctx)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
