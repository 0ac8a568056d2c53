package models

import "time"

// Installation is a top-level subdirectory of the backup root.
type Installation struct {
	Name string `json:"name"`
}

// BackupFile is a single backup document inside an installation directory.
type BackupFile struct {
	Installation string    `json:"installation"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// DeletionReceipt is returned after a backup file has been removed.
type DeletionReceipt struct {
	Message      string    `json:"message"`
	Installation string    `json:"installation"`
	Filename     string    `json:"filename"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// DiskUsage describes the filesystem holding the backup root.
type DiskUsage struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status            string     `json:"status"`
	Timestamp         time.Time  `json:"timestamp"`
	BackupDir         string     `json:"backup_dir,omitempty"`
	BackupDirExists   bool       `json:"backup_dir_exists"`
	BackupDirReadable bool       `json:"backup_dir_readable"`
	BackupDirWritable bool       `json:"backup_dir_writable"`
	Disk              *DiskUsage `json:"disk,omitempty"`
}
