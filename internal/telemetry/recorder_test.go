// File: internal/telemetry/recorder_test.go
package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	rec, err := Open(filepath.Join(t.TempDir(), "telemetry.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", zap.NewNop())
	assert.Error(t, err)
}

func TestOpenCreatesRunRow(t *testing.T) {
	rec := openTestRecorder(t)
	require.NotEmpty(t, rec.RunID())

	var startedAt string
	err := rec.db.QueryRow(
		`SELECT started_at FROM runs WHERE id = ?`, rec.RunID(),
	).Scan(&startedAt)
	require.NoError(t, err)
	assert.NotEmpty(t, startedAt)
}

func TestRecordActionRoundTrip(t *testing.T) {
	rec := openTestRecorder(t)

	action := &game.Action{
		Type:     game.ActionMove,
		TargetID: "npc-7",
		Meta: game.Meta{
			Reason: "danger_escape",
			Danger: 85,
			Escape: true,
		},
	}
	rec.RecordAction(12, "safety", action)

	var (
		module, actionType, targetID, reason string
		danger, escape                       int
	)
	err := rec.db.QueryRow(
		`SELECT module, type, target_id, reason, danger, "escape"
		 FROM actions WHERE run_id = ? AND tick = 12`, rec.RunID(),
	).Scan(&module, &actionType, &targetID, &reason, &danger, &escape)
	require.NoError(t, err)

	assert.Equal(t, "safety", module)
	assert.Equal(t, "move", actionType)
	assert.Equal(t, "npc-7", targetID)
	assert.Equal(t, "danger_escape", reason)
	assert.Equal(t, 85, danger)
	assert.Equal(t, 1, escape)
}

func TestRecordFinishFinalizesRunRow(t *testing.T) {
	rec := openTestRecorder(t)
	rec.RecordFinish("max_ticks reached", 300)

	var (
		finishedAt, stopReason string
		totalTicks             int
	)
	err := rec.db.QueryRow(
		`SELECT finished_at, stop_reason, total_ticks FROM runs WHERE id = ?`, rec.RunID(),
	).Scan(&finishedAt, &stopReason, &totalTicks)
	require.NoError(t, err)

	assert.NotEmpty(t, finishedAt)
	assert.Equal(t, "max_ticks reached", stopReason)
	assert.Equal(t, 300, totalTicks)
}

func TestRecordAfterCloseDoesNotPanic(t *testing.T) {
	rec, err := Open(filepath.Join(t.TempDir(), "telemetry.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	assert.NotPanics(t, func() {
		rec.RecordAction(1, "farm", &game.Action{Type: game.ActionCollect})
		rec.RecordFinish("normal", 1)
	})
}
