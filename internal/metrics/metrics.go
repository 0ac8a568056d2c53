// Package metrics exposes Prometheus counters for backup operations and
// disk usage of the backup root.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Error kinds used as the "kind" label of ErrorsTotal.
const (
	KindInvalidName  = "invalid_name"
	KindNotFound     = "not_found"
	KindInvalidState = "invalid_state"
	KindStorage      = "storage"
	KindInternal     = "internal"
)

var (
	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodered_backups_downloads_total",
		Help: "Backup downloads answered with file content (200 or 206)",
	})
	DeletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodered_backups_deletions_total",
		Help: "The total number of backup files deleted through the API",
	})
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodered_backups_errors_total",
		Help: "The total number of failed backup operations by kind",
	}, []string{"kind"})
	RetentionRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodered_backups_retention_removed_total",
		Help: "The total number of backup files removed by the retention sweep",
	})
)

// RecordError increments the error counter for kind.
func RecordError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}
