package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	mcp_internal "github.com/gwdetchar/segcoalesce/internal/mcp"
	"github.com/gwdetchar/segcoalesce/internal/segdb"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/inconshreveable/log15"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(store contract.SegmentStore) *server.MCPServer {
	baseCfg := &contract.Config{
		Filter:    schema.GroupFilter{Version: 1},
		CreatorDB: 1,
		TxMode:    schema.WindowTx,
	}
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	return mcp_internal.NewMCPServer(baseCfg, store, logger)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerCoalesceIntervals(t *testing.T) {
	s := newTestServer(&segdb.MockSegmentStore{})

	res := callTool(t, s, "coalesce_intervals", map[string]any{"intervals": "20:30, 0:10,5:15,15:18,40:40"})
	require.False(t, res.IsError, resultText(res))

	var out struct {
		Intervals []schema.Interval `json:"intervals"`
		Coverage  int64             `json:"coverage_seconds"`
		Canonical bool              `json:"input_was_canonical"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	assert.Equal(t, []schema.Interval{{Start: 0, End: 18}, {Start: 20, End: 30}}, out.Intervals)
	assert.Equal(t, int64(28), out.Coverage)
	assert.False(t, out.Canonical)

	res = callTool(t, s, "coalesce_intervals", map[string]any{"intervals": "0:10,20:30"})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(res), `"input_was_canonical": true`)
}

func TestMCPServerCoalesceIntervalsValidation(t *testing.T) {
	s := newTestServer(&segdb.MockSegmentStore{})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "no intervals given"},
		{"missing colon", "0-10", "not of the form START:END"},
		{"bad start", "x:10", "invalid start"},
		{"bad end", "0:y", "invalid end"},
		{"inverted", "10:5", "start 10 is after end 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, "coalesce_intervals", map[string]any{"intervals": tt.input})
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestMCPServerStoreStatus(t *testing.T) {
	store := &segdb.MockSegmentStore{}
	store.On("Status", mock.Anything).Return(schema.StoreStatus{Backend: "sqlite", Connected: true, TotalRuns: 3}, nil).Once()
	store.On("Status", mock.Anything).Return(schema.StoreStatus{}, contract.ErrStorageUnavailable).Once()
	s := newTestServer(store)

	res := callTool(t, s, "store_status", nil)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(res), `"total_runs": 3`)

	res = callTool(t, s, "store_status", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "storage unavailable")
}

func TestMCPServerListRuns(t *testing.T) {
	end := int64(20)
	store := &segdb.MockSegmentStore{}
	store.On("ListRuns", mock.Anything).Return([]schema.Run{
		{ID: "run-3", StartTime: 30},
		{ID: "run-2", StartTime: 20},
		{ID: "run-1", StartTime: 10, EndTime: &end},
	}, nil)
	s := newTestServer(store)

	decode := func(res *mcp.CallToolResult) []string {
		var runs []schema.Run
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &runs))
		ids := make([]string, len(runs))
		for i, r := range runs {
			ids[i] = r.ID
		}
		return ids
	}

	assert.Equal(t, []string{"run-3", "run-2", "run-1"}, decode(callTool(t, s, "list_runs", nil)))
	assert.Equal(t, []string{"run-3", "run-2"}, decode(callTool(t, s, "list_runs", map[string]any{"open_only": true})))
	assert.Equal(t, []string{"run-3"}, decode(callTool(t, s, "list_runs", map[string]any{"limit": 1.0})))
}

func TestMCPServerPreviewWindow(t *testing.T) {
	g := schema.Group{DefID: "def-1", IFOs: "L1", Name: "SCIENCE", Version: 2}
	window := schema.Window{Start: 100, End: 200}
	filter := schema.GroupFilter{IFOs: []string{"L1"}, Version: 2}

	tx := &segdb.MockSegmentTx{}
	store := &segdb.MockSegmentStore{Tx: tx}
	store.On("ListGroups", mock.Anything, window, filter).Return([]schema.Group{g}, nil)
	store.On("WithWindow", mock.Anything).Return(nil)
	tx.On("LockGroup", mock.Anything, g).Return(nil)
	tx.On("SelectIntervals", mock.Anything, schema.SegmentTable, g, window, mock.Anything).Return([]schema.IntervalRow{
		{RowID: "a", Interval: schema.Interval{Start: 100, End: 110}, RunID: "old"},
		{RowID: "b", Interval: schema.Interval{Start: 110, End: 120}, RunID: "old"},
	}, nil)
	tx.On("SelectIntervals", mock.Anything, schema.SummaryTable, g, window, mock.Anything).Return([]schema.IntervalRow(nil), nil)
	s := newTestServer(store)

	res := callTool(t, s, "preview_window", map[string]any{"start": "100", "end": "200", "ifos": "L1", "version": 2.0})
	require.False(t, res.IsError, resultText(res))

	var report schema.Report
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &report))
	assert.True(t, report.DryRun)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, schema.SucceededOutcome, report.Groups[0].Outcome)
	store.AssertNotCalled(t, "BeginRun", mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "InsertIntervals", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "DeleteIntervals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMCPServerPreviewWindowValidation(t *testing.T) {
	s := newTestServer(&segdb.MockSegmentStore{})

	res := callTool(t, s, "preview_window", map[string]any{"start": "later", "end": "200"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "invalid start")

	res = callTool(t, s, "preview_window", map[string]any{"start": "300", "end": "200"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "cannot be after end time")
}
