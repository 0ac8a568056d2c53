package metrics

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/pandeptwidyaop/nodered-backups/internal/models"
)

// DiskUsage reports usage of the filesystem holding path.
func DiskUsage(ctx context.Context, path string) (*models.DiskUsage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, err
	}

	return &models.DiskUsage{
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}
