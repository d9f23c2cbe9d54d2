package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/petrijr/relay/pkg/api"
)

// FromEnv overlays RELAY_* environment variables onto cfg.
//
// Per-category sizing uses RELAY_POOL_<CATEGORY>_CORE, _MAX and
// _QUEUE_CAPACITY. RELAY_RESERVED takes comma separated workload=category
// pairs and replaces any reserved table from the file.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RELAY_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("RELAY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("RELAY_KEEP_ALIVE"); v != "" {
		cfg.KeepAlive = v
	}
	if v := os.Getenv("RELAY_SNAPSHOT_INTERVAL"); v != "" {
		cfg.Snapshot.Interval = v
	}
	if v := os.Getenv("RELAY_SNAPSHOT_DB"); v != "" {
		cfg.Snapshot.DB = v
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RELAY_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	for _, c := range api.Categories() {
		prefix := "RELAY_POOL_" + strings.ToUpper(string(c)) + "_"
		o, touched := PoolOverride{}, false
		if cfg.Pools != nil {
			o = cfg.Pools[string(c)]
		}
		if n, ok := envInt(prefix + "CORE"); ok {
			o.Core, touched = &n, true
		}
		if n, ok := envInt(prefix + "MAX"); ok {
			o.Max, touched = &n, true
		}
		if n, ok := envInt(prefix + "QUEUE_CAPACITY"); ok {
			o.QueueCapacity, touched = &n, true
		}
		if touched {
			if cfg.Pools == nil {
				cfg.Pools = make(map[string]PoolOverride)
			}
			cfg.Pools[string(c)] = o
		}
	}

	if v := os.Getenv("RELAY_RESERVED"); v != "" {
		cfg.Reserved = make(map[string]string)
		for _, pair := range strings.Split(v, ",") {
			workload, category, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || workload == "" {
				continue
			}
			cfg.Reserved[strings.TrimSpace(workload)] = strings.TrimSpace(category)
		}
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
