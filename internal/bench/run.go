// Package bench drives a relay host with a synthetic burst and reports how
// each unit absorbed it.
package bench

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/petrijr/relay"
	"github.com/petrijr/relay/internal/config"
	"github.com/petrijr/relay/internal/logging"
	"github.com/petrijr/relay/internal/snapshot"
	"github.com/petrijr/relay/pkg/api"
	"github.com/petrijr/relay/pkg/metrics"
)

// Options controls one benchmark run.
type Options struct {
	Config config.Config

	// Workloads receive Tasks dispatches each, from one producer per
	// workload.
	Workloads []string
	Tasks     int
	// Work is how long each task sleeps.
	Work time.Duration

	// MetricsAddr serves /metrics while the run lasts when non-empty.
	MetricsAddr string

	// LogOutput receives the structured logs. Nil discards them.
	LogOutput io.Writer
}

// WorkloadResult counts the outcome of one producer.
type WorkloadResult struct {
	Workload   string
	Unit       string
	Dispatched int64
	Overloaded int64
}

// Report is the outcome of a run.
type Report struct {
	Profile   string
	RunID     string
	Elapsed   time.Duration
	Workloads []WorkloadResult
	Units     []api.PoolStats
	Metrics   api.BasicMetricsSnapshot
	Samples   int
}

// Run builds a host from opts.Config, fires the burst and stops the host
// once every accepted task has run.
func Run(ctx context.Context, opts Options) (Report, error) {
	if len(opts.Workloads) == 0 {
		return Report{}, errors.New("bench: no workloads")
	}
	if err := opts.Config.Validate(); err != nil {
		return Report{}, err
	}
	profile, err := opts.Config.Profile()
	if err != nil {
		return Report{}, err
	}

	out := opts.LogOutput
	if out == nil {
		out = io.Discard
	}
	logger := logging.New(opts.Config.Log.Level, opts.Config.Log.Format, out)

	reg := prometheus.NewRegistry()
	promObs := metrics.NewObserver("relay")
	if err := promObs.Register(reg); err != nil {
		return Report{}, err
	}
	basic := &api.BasicMetrics{}

	hostOpts := []relay.HostOption{
		relay.WithLogger(logger),
		relay.WithObserver(api.NewCompositeObserver(api.NewLoggingObserver(logger), promObs, basic)),
	}

	interval, _ := opts.Config.SnapshotInterval()
	var store snapshot.Store
	if interval > 0 {
		store, err = openStore(opts.Config.Snapshot.DB)
		if err != nil {
			return Report{}, err
		}
		if c, ok := store.(io.Closer); ok {
			defer c.Close()
		}
		hostOpts = append(hostOpts, relay.WithSnapshots(store, interval))
	}

	host := relay.NewHost(profile, hostOpts...)
	if err := host.Start(ctx); err != nil {
		return Report{}, err
	}
	if err := reg.Register(metrics.NewUnitCollector("relay", host.Strategy())); err != nil {
		_ = host.Stop(context.Background())
		return Report{}, err
	}

	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics_server", slog.Any("error", err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	start := time.Now()
	results := make([]WorkloadResult, len(opts.Workloads))

	g, gctx := errgroup.WithContext(ctx)
	for i, workload := range opts.Workloads {
		unit, err := host.Unit(workload)
		if err != nil {
			_ = host.Stop(context.Background())
			return Report{}, err
		}
		results[i] = WorkloadResult{Workload: workload, Unit: unit.Name()}

		i, workload := i, workload
		g.Go(func() error {
			res := &results[i]
			for n := 0; n < opts.Tasks; n++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				err := host.Dispatch(workload, func() { time.Sleep(opts.Work) })
				switch {
				case err == nil:
					res.Dispatched++
				case errors.Is(err, api.ErrOverloaded):
					res.Overloaded++
				default:
					return fmt.Errorf("dispatch %s: %w", workload, err)
				}
			}
			return nil
		})
	}
	produceErr := g.Wait()

	stopErr := host.Stop(context.Background())
	report := Report{
		Profile:   profile.Name,
		RunID:     host.RunID(),
		Elapsed:   time.Since(start),
		Workloads: results,
		Units:     host.Stats(),
		Metrics:   basic.Snapshot(),
	}
	if store != nil {
		snaps, err := store.List(context.Background(), snapshot.Filter{RunID: report.RunID})
		if err == nil {
			report.Samples = len(snaps)
		}
	}
	return report, errors.Join(produceErr, stopErr)
}

type sqliteStore struct {
	*snapshot.SQLiteStore
	db *sql.DB
}

func (s sqliteStore) Close() error { return s.db.Close() }

func openStore(path string) (snapshot.Store, error) {
	if path == "" {
		return snapshot.NewMemoryStore(), nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	st, err := snapshot.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqliteStore{SQLiteStore: st, db: db}, nil
}

// Print writes a human-readable summary of r.
func (r Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "profile\t%s\n", r.Profile)
	if r.RunID != "" {
		fmt.Fprintf(tw, "run\t%s\t(%d samples)\n", r.RunID, r.Samples)
	}
	fmt.Fprintf(tw, "elapsed\t%s\n\n", r.Elapsed.Round(time.Millisecond))

	fmt.Fprintln(tw, "WORKLOAD\tUNIT\tDISPATCHED\tOVERLOADED")
	for _, wr := range r.Workloads {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", wr.Workload, wr.Unit, wr.Dispatched, wr.Overloaded)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "UNIT\tCORE\tMAX\tLARGEST\tCOMPLETED\tREJECTED\tPANICKED")
	for _, s := range r.Units {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", s.Name, s.Core, s.Max, s.Largest, s.Completed, s.Rejected, s.Panicked)
	}
	return tw.Flush()
}
