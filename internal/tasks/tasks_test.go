package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrilift/portal/internal/config"
	"agrilift/portal/internal/events"
)

func TestNewExportEventTask(t *testing.T) {
	ev := events.New(events.TypeExportStatusChanged, "EXP17000000000000001", "farmer-1",
		map[string]interface{}{"status": "shipped"})

	task, err := NewExportEventTask(ev)
	require.NoError(t, err)
	assert.Equal(t, TypeExportEvent, task.Type())

	var decoded events.Event
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, ev.Type, decoded.Type)
	assert.Equal(t, ev.ExportID, decoded.ExportID)
	assert.Equal(t, "shipped", decoded.Data["status"])
}

func TestHandleExportEventTask(t *testing.T) {
	processor := NewTaskProcessor(&config.Config{})

	ev := events.New(events.TypeExportCreated, "EXP17000000000000001", "farmer-1", nil)
	task, err := NewExportEventTask(ev)
	require.NoError(t, err)

	assert.NoError(t, processor.HandleExportEventTask(context.Background(), task))
}
