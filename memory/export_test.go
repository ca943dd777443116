package memory_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newExportService(t *testing.T) (memory.Service, *memory.InMemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewInMemoryStore()
	return memory.NewService(store, nil, nil, nil, nil, logger), store
}

func seedMemory(t *testing.T, store *memory.InMemoryStore, m *entity.Memory) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), "tenant-1", m))
}

func TestService_ExportByUser_JSON(t *testing.T) {
	ctx := context.Background()
	svc, store := newExportService(t)

	seedMemory(t, store, &entity.Memory{
		ID:         "m1",
		UserID:     "u1",
		Content:    "remember this",
		Importance: 0.7,
		Tags:       datatypes.NewJSONType([]string{"a", "b"}),
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	out, err := svc.ExportByUser(ctx, "tenant-1", "u1", memory.ExportFormatJSON)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0]["id"])
	assert.Equal(t, "remember this", records[0]["content"])
	assert.Equal(t, 0.7, records[0]["importance"])
	assert.Equal(t, "2026-03-01T12:00:00Z", records[0]["createdAt"])

	// Embeddings never leave the store.
	assert.NotContains(t, out, "embedding")
}

func TestService_ExportByUser_CSV(t *testing.T) {
	ctx := context.Background()
	svc, store := newExportService(t)

	seedMemory(t, store, &entity.Memory{
		ID:      "m1",
		UserID:  "u1",
		Content: "with, comma and \"quotes\" and\nnewline",
		Tags:    datatypes.NewJSONType([]string{"a", "b"}),
	})

	out, err := svc.ExportByUser(ctx, "tenant-1", "u1", memory.ExportFormatCSV)
	require.NoError(t, err)

	lines := strings.SplitN(out, "\n", 2)
	assert.Equal(t, "id,userId,agentId,sessionId,content,source,importance,tags,apiKeyName,createdAt", lines[0])

	// A field containing a comma, quote, or newline is wrapped in quotes with
	// inner quotes doubled.
	assert.Contains(t, out, "\"with, comma and \"\"quotes\"\" and\nnewline\"")
	assert.Contains(t, out, "a;b")
}

func TestService_ExportByUser_UnsupportedFormat(t *testing.T) {
	svc, _ := newExportService(t)
	_, err := svc.ExportByUser(context.Background(), "tenant-1", "u1", "xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidParams))
}

func TestService_ExportByUser_EmptyUser(t *testing.T) {
	svc, _ := newExportService(t)
	out, err := svc.ExportByUser(context.Background(), "tenant-1", "nobody", memory.ExportFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
