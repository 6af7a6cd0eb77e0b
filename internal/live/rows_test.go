package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-console/internal/domain"
)

func requestsTree() map[string]any {
	return map[string]any{
		"john_2101@presidencyuniversity.in": map[string]any{
			"10": map[string]any{"history": map[string]any{
				"1700000000000": map[string]any{"requestedQty": "2", "status": "raised"},
			}},
			"7": map[string]any{"history": map[string]any{
				"1700000000002": map[string]any{"requestedQty": "1", "status": "approved", "specialNote": "lab 3"},
				"1700000000001": map[string]any{"requestedQty": "4", "status": "raised", "requestType": "Urgent"},
			}},
			"3D_Print": map[string]any{"history": map[string]any{
				"1700000000100": map[string]any{"material": "PLA", "link": "https://x/stl", "status": "raised", "requestType": "Prototype"},
			}},
			"Mentor_Support": map[string]any{"history": map[string]any{
				"1700000000200": map[string]any{"query": "Which port?"},
			}},
		},
		"amy@presidencyuniversity.in": map[string]any{
			"7": map[string]any{"history": map[string]any{
				"1700000000003": map[string]any{"status": "delivered"},
			}},
		},
	}
}

func TestComponentRowsOrderAndEnrichment(t *testing.T) {
	items := map[string]domain.InventoryItem{
		"7": {ID: "7", Name: "Arduino Uno", Description: "Board", TotalQty: "10", AvailableQty: "4", RequestType: "Normal"},
	}
	rows := ComponentRows(requestsTree(), items, time.UTC)
	require.Len(t, rows, 4)

	assert.Equal(t, "amy@presidencyuniversity.in", rows[0].Owner)
	assert.Equal(t, "amy", rows[0].Name)
	assert.Equal(t, "--", rows[0].Roll)
	assert.Equal(t, "--", rows[0].RequestedQty)

	assert.Equal(t, "7", rows[1].ComponentID)
	assert.Equal(t, "1700000000001", rows[1].Locator.Timestamp)
	assert.Equal(t, "Normal", rows[1].RequestType)
	assert.Equal(t, "Arduino Uno", rows[1].ComponentName)
	assert.Equal(t, "2101", rows[1].Roll)

	assert.Equal(t, "1700000000002", rows[2].Locator.Timestamp)
	assert.Equal(t, "lab 3", rows[2].SpecialNote)

	assert.Equal(t, "10", rows[3].ComponentID)
	assert.Equal(t, "--", rows[3].ComponentName)
	for i, row := range rows {
		assert.Equal(t, i+1, row.Index)
	}
}

func TestComponentRowsWithoutInventory(t *testing.T) {
	rows := ComponentRows(requestsTree(), map[string]domain.InventoryItem{}, time.UTC)
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Equal(t, "--", row.ComponentName)
		assert.Equal(t, "--", row.Description)
		assert.Equal(t, "--", row.TotalQty)
		assert.Equal(t, "--", row.AvailableQty)
	}
	assert.Equal(t, "Urgent", rows[1].RequestType)
	assert.Equal(t, "Normal", rows[2].RequestType)
}

func TestComponentRowsIsPure(t *testing.T) {
	tree := requestsTree()
	first := ComponentRows(tree, nil, time.UTC)
	second := ComponentRows(tree, nil, time.UTC)
	assert.Equal(t, first, second)
	assert.Equal(t, requestsTree(), tree)
}

func TestComponentRowsTimeFallsBackToKey(t *testing.T) {
	rows := ComponentRows(map[string]any{
		"a@x.in": map[string]any{"1": map[string]any{"history": map[string]any{
			"1700000000000": map[string]any{"status": "raised"},
			"later":         map[string]any{"status": "raised", "time": float64(1700003600000)},
			"bogus":         map[string]any{"status": "raised"},
		}}},
	}, nil, time.UTC)
	require.Len(t, rows, 3)
	assert.Equal(t, "14/11/2023, 22:13:20", rows[0].Time)
	assert.Equal(t, "bogus", rows[1].Time)
	assert.Equal(t, "14/11/2023, 23:13:20", rows[2].Time)
}

func TestPrintRows(t *testing.T) {
	rows := PrintRows(requestsTree(), time.UTC)
	require.Len(t, rows, 1)
	assert.Equal(t, "john", rows[0].Name)
	assert.Equal(t, "PLA", rows[0].Material)
	assert.Equal(t, "Prototype", rows[0].RequestType)
	assert.Equal(t, domain.Locator{
		User: "john_2101@presidencyuniversity.in", RequestID: "3D_Print", Collection: "history", Timestamp: "1700000000100",
	}, rows[0].Locator)
}

func TestChatUsers(t *testing.T) {
	users := ChatUsers(requestsTree())
	assert.Equal(t, []ChatUser{{Email: "john_2101@presidencyuniversity.in", Name: "john", Roll: "2101"}}, users)
	assert.Empty(t, ChatUsers(nil))
}
