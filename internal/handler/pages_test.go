package handler

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAssignBlockIDs_GeneratesMissingIDs(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","body":"hello"},{"id":"keep-me","type":"image"}]`)

	var blocks []map[string]interface{}
	assert.NoError(t, json.Unmarshal(assignBlockIDs(raw), &blocks))
	assert.Len(t, blocks, 2)

	generated, ok := blocks[0]["id"].(string)
	assert.True(t, ok)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	// Blocks that already carry an id keep it.
	assert.Equal(t, "keep-me", blocks[1]["id"])
}

func TestAssignBlockIDs_NonArrayPassesThrough(t *testing.T) {
	raw := json.RawMessage(`{"layout":"single"}`)
	assert.Equal(t, raw, assignBlockIDs(raw))

	var empty json.RawMessage
	assert.Equal(t, empty, assignBlockIDs(empty))
}
