package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandeptwidyaop/nodered-backups/internal/services"
)

func TestAuditService_LogAndGetLogs(t *testing.T) {
	svc := services.NewAuditService(setupTestDB(t))

	svc.LogDownload("kitchen", "flows_1.json", "10.0.0.1", "curl/8", "req-1")
	svc.LogDelete("kitchen", "flows_0.json", "10.0.0.2", "firefox", "req-2")
	svc.LogRetentionDelete("garage", "old.json", 5)

	logs, err := svc.GetLogs(10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	// newest first
	assert.Equal(t, services.ActionRetentionDelete, logs[0].Action)
	assert.Equal(t, "garage", logs[0].Installation)
	assert.JSONEq(t, `{"keep_last":5}`, logs[0].Details)
	assert.Empty(t, logs[0].IPAddress)

	assert.Equal(t, services.ActionDelete, logs[1].Action)
	assert.Equal(t, "flows_0.json", logs[1].Filename)
	assert.Equal(t, "req-2", logs[1].RequestID)

	assert.Equal(t, services.ActionDownload, logs[2].Action)
	assert.Equal(t, "10.0.0.1", logs[2].IPAddress)
	assert.Equal(t, "curl/8", logs[2].UserAgent)
	assert.NotEmpty(t, logs[2].CreatedAt)
}

func TestAuditService_GetLogs_Pagination(t *testing.T) {
	svc := services.NewAuditService(setupTestDB(t))

	for i := 0; i < 5; i++ {
		svc.LogLogin("127.0.0.1", "test", i%2 == 0)
	}

	page, err := svc.GetLogs(2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := svc.GetLogs(10, 4)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Equal(t, services.ActionLoginSuccess, rest[0].Action)
}

func TestAuditService_GetLogs_Empty(t *testing.T) {
	svc := services.NewAuditService(setupTestDB(t))

	logs, err := svc.GetLogs(0, 0)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}

func TestAuditService_LogFailureIsReturned(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewAuditService(db)
	require.NoError(t, db.Close())

	err := svc.Log(services.AuditLog{Action: services.ActionDelete})
	assert.Error(t, err)
}
