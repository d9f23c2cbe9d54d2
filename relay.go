package relay

import (
	"github.com/petrijr/relay/internal/snapshot"
	"github.com/petrijr/relay/pkg/api"
	"github.com/petrijr/relay/pkg/executor"
	"github.com/petrijr/relay/pkg/strategy"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Task                 = api.Task
	Category             = api.Category
	Classifier           = api.Classifier
	ClassifierFunc       = api.ClassifierFunc
	MapClassifier        = api.MapClassifier
	PoolConfig           = api.PoolConfig
	PoolInfo             = api.PoolInfo
	PoolStats            = api.PoolStats
	ConfigError          = api.ConfigError
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	Unit     = executor.Unit
	Factory  = executor.Factory
	Strategy = strategy.Strategy
	Registry = strategy.Registry
	Profile  = strategy.Profile
	Kind     = strategy.Kind

	Snapshot = snapshot.Snapshot
)

// Re-export common constructors and helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	FixedPool   = api.FixedPool
	ElasticPool = api.ElasticPool
	UnitName    = api.UnitName

	NewFactory  = executor.NewFactory
	NewStrategy = strategy.New

	DefaultProfile  = strategy.DefaultProfile
	SharedProfile   = strategy.SharedProfile
	IsolatedProfile = strategy.IsolatedProfile
	ProfileFor      = strategy.ProfileFor
	Concurrency     = strategy.Concurrency
)

// Re-export categories, profile kinds and sentinel errors for convenience.

const (
	CategoryGeneral   = api.CategoryGeneral
	CategoryRequest   = api.CategoryRequest
	CategoryBroadcast = api.CategoryBroadcast

	WorkloadRequestMessage   = api.WorkloadRequestMessage
	WorkloadBroadcastMessage = api.WorkloadBroadcastMessage

	KindDefault  = strategy.KindDefault
	KindShared   = strategy.KindShared
	KindIsolated = strategy.KindIsolated
)

var (
	ErrInvalidConfig = api.ErrInvalidConfig
	ErrOverloaded    = api.ErrOverloaded
	ErrShutdown      = api.ErrShutdown
	ErrNilTask       = api.ErrNilTask
	ErrNotStarted    = api.ErrNotStarted
)
