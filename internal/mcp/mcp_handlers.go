package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gwdetchar/segcoalesce/core"
	"github.com/gwdetchar/segcoalesce/core/algo"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/inconshreveable/log15"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.SegmentStore
	logger  log15.Logger
}

// coalesceResult is the answer of coalesce_intervals.
type coalesceResult struct {
	Intervals []schema.Interval `json:"intervals"`
	Coverage  int64             `json:"coverage_seconds"`
	Canonical bool              `json:"input_was_canonical"`
}

func (h *toolHandler) handleCoalesceIntervals(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	intervals, err := parseIntervals(request.GetString("intervals", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid intervals: %v", err)), nil
	}
	if err := algo.Validate(intervals); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid intervals: %v", err)), nil
	}

	set := algo.Coalesce(intervals)
	result := coalesceResult{
		Intervals: set.Intervals(),
		Coverage:  set.Coverage(),
		Canonical: algo.IsCanonical(intervals),
	}
	if result.Intervals == nil {
		result.Intervals = []schema.Interval{}
	}
	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleStoreStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.store.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := h.store.ListRuns(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing runs failed: %v", err)), nil
	}

	if request.GetBool("open_only", false) {
		open := runs[:0]
		for _, r := range runs {
			if r.Open() {
				open = append(open, r)
			}
		}
		runs = open
	}
	if l := request.GetInt("limit", 0); l > 0 && l < len(runs) {
		runs = runs[:l]
	}
	if runs == nil {
		runs = []schema.Run{}
	}

	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handlePreviewWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	now := time.Now()

	start, err := contract.ParseGPSTime(request.GetString("start", ""), now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start: %v", err)), nil
	}
	end, err := contract.ParseGPSTime(request.GetString("end", ""), now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end: %v", err)), nil
	}
	if start > end {
		return mcp.NewToolResultError(fmt.Sprintf("start time (%d) cannot be after end time (%d)", start, end)), nil
	}
	cfg.Window = schema.Window{Start: start, End: end}
	cfg.HasWindow = true

	if ifos := request.GetString("ifos", ""); ifos != "" {
		cfg.Filter.IFOs = schema.SplitList(ifos)
	}
	if names := request.GetString("names", ""); names != "" {
		cfg.Filter.Names = schema.SplitList(names)
	}
	if v := request.GetInt("version", 0); v > 0 {
		cfg.Filter.Version = v
	}

	report, err := core.PreviewWindow(ctx, cfg, h.store, h.logger)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// parseIntervals reads "START:END" pairs separated by commas.
func parseIntervals(s string) ([]schema.Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no intervals given")
	}
	var out []schema.Interval
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		startStr, endStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("'%s' is not of the form START:END", pair)
		}
		start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start in '%s'", pair)
		}
		end, err := strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid end in '%s'", pair)
		}
		out = append(out, schema.Interval{Start: start, End: end})
	}
	return out, nil
}
