package strategy

import (
	"fmt"
	"maps"
	"runtime"

	"github.com/petrijr/relay/pkg/api"
)

// Kind names a built-in profile.
type Kind string

const (
	// KindDefault runs an elastic general pool plus a fixed pool reserved
	// for request messages.
	KindDefault Kind = "default"

	// KindShared runs every workload on one elastic pool.
	KindShared Kind = "shared"

	// KindIsolated extends KindDefault with a fixed broadcast pool.
	KindIsolated Kind = "isolated"
)

// Kinds lists the built-in profiles.
func Kinds() []Kind {
	return []Kind{KindDefault, KindShared, KindIsolated}
}

// Profile describes the pools a Registry builds and how workloads are routed
// to them. Pools must contain CategoryGeneral.
type Profile struct {
	Name       string
	Classifier api.Classifier
	Pools      map[api.Category]api.PoolConfig
}

// Concurrency returns the number of available concurrency units, the basis
// of every built-in profile's sizing.
func Concurrency() int {
	return runtime.GOMAXPROCS(0)
}

// DefaultProfile sizes the general pool at core n, max 2n and the request
// pool at a fixed n, so a burst on unrelated workloads cannot grow into the
// request pool's capacity.
func DefaultProfile(n int) Profile {
	n = max(n, 1)
	return Profile{
		Name: string(KindDefault),
		Classifier: api.MapClassifier{
			api.WorkloadRequestMessage: api.CategoryRequest,
		},
		Pools: map[api.Category]api.PoolConfig{
			api.CategoryGeneral: api.ElasticPool(n, n<<1),
			api.CategoryRequest: api.FixedPool(n),
		},
	}
}

// SharedProfile routes everything to a single general pool.
func SharedProfile(n int) Profile {
	n = max(n, 1)
	return Profile{
		Name:       string(KindShared),
		Classifier: api.MapClassifier{},
		Pools: map[api.Category]api.PoolConfig{
			api.CategoryGeneral: api.ElasticPool(n, n<<1),
		},
	}
}

// IsolatedProfile is DefaultProfile plus a fixed broadcast pool of half the
// concurrency units.
func IsolatedProfile(n int) Profile {
	p := DefaultProfile(n)
	p.Name = string(KindIsolated)
	p.Classifier = api.MapClassifier{
		api.WorkloadRequestMessage:   api.CategoryRequest,
		api.WorkloadBroadcastMessage: api.CategoryBroadcast,
	}
	p.Pools[api.CategoryBroadcast] = api.FixedPool(max(n/2, 1))
	return p
}

// ProfileFor returns the built-in profile for kind sized for n units.
func ProfileFor(kind Kind, n int) (Profile, error) {
	switch kind {
	case KindDefault, "":
		return DefaultProfile(n), nil
	case KindShared:
		return SharedProfile(n), nil
	case KindIsolated:
		return IsolatedProfile(n), nil
	default:
		return Profile{}, &api.ConfigError{Field: "strategy", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
}

// WithReserved returns a copy of p whose classifier also routes the given
// workloads. It requires a MapClassifier and a pool for every category used.
func (p Profile) WithReserved(extra map[string]api.Category) (Profile, error) {
	if len(extra) == 0 {
		return p, nil
	}
	base, ok := p.Classifier.(api.MapClassifier)
	if !ok {
		return Profile{}, &api.ConfigError{Field: "reserved", Reason: fmt.Sprintf("profile %q classifier %T does not accept reserved workloads", p.Name, p.Classifier)}
	}

	merged := make(api.MapClassifier, len(base)+len(extra))
	maps.Copy(merged, base)
	for workload, c := range extra {
		if !c.Valid() {
			return Profile{}, &api.ConfigError{Field: "reserved", Reason: fmt.Sprintf("workload %q: unknown category %q", workload, c)}
		}
		if _, ok := p.Pools[c]; !ok {
			return Profile{}, &api.ConfigError{Field: "reserved", Reason: fmt.Sprintf("workload %q: profile %q has no %s pool", workload, p.Name, c)}
		}
		merged[workload] = c
	}
	p.Classifier = merged
	return p, nil
}

// WithPool returns a copy of p with the pool for c replaced by cfg.
func (p Profile) WithPool(c api.Category, cfg api.PoolConfig) Profile {
	pools := maps.Clone(p.Pools)
	if pools == nil {
		pools = make(map[api.Category]api.PoolConfig)
	}
	pools[c] = cfg
	p.Pools = pools
	return p
}

// Validate checks the profile before any pool is built.
func (p Profile) Validate() error {
	if _, ok := p.Pools[api.CategoryGeneral]; !ok {
		return &api.ConfigError{Field: "pools", Reason: fmt.Sprintf("profile %q has no %s pool", p.Name, api.CategoryGeneral)}
	}
	for c, cfg := range p.Pools {
		if !c.Valid() {
			return &api.ConfigError{Field: "pools", Reason: fmt.Sprintf("unknown category %q", c)}
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s pool: %w", c, err)
		}
	}
	if m, ok := p.Classifier.(api.MapClassifier); ok {
		for _, c := range m.Reserved() {
			if _, ok := p.Pools[c]; !ok {
				return &api.ConfigError{Field: "classifier", Reason: fmt.Sprintf("routes to %s but profile %q has no such pool", c, p.Name)}
			}
		}
	}
	return nil
}
