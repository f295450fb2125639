package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"manual-spec-rag/internal/export"
	"manual-spec-rag/internal/rag"
)

func TestExportPath(t *testing.T) {
	tests := []struct {
		out          string
		index, total int
		want         string
	}{
		{"", 0, 1, filepath.Join(exportDir, "manual.csv")},
		{"", 1, 2, filepath.Join(exportDir, "manual-2.csv")},
		{"out/specs.csv", 0, 1, "out/specs.csv"},
		{"out/specs.csv", 0, 3, "out/specs-1.csv"},
	}
	for _, tt := range tests {
		if got := exportPath(tt.out, "manual.pdf", export.FormatCSV, tt.index, tt.total); got != tt.want {
			t.Errorf("exportPath(%q, %d, %d): expected %q, got %q", tt.out, tt.index, tt.total, tt.want, got)
		}
	}
}

func TestQueryList(t *testing.T) {
	var q queryList
	_ = q.Set("head bolt torque")
	_ = q.Set("oil capacity")
	if len(q) != 2 || q.String() != "head bolt torque; oil capacity" {
		t.Errorf("Unexpected query list %v", q)
	}
}

type closeRecorder struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestWriteReport_CloseError(t *testing.T) {
	res := &rag.Result{RunID: "run-1", Query: "torque"}
	flushErr := errors.New("disk full")

	tests := []struct {
		name    string
		format  export.Format
		w       *closeRecorder
		wantErr string
	}{
		{name: "close error surfaces", format: export.FormatJSON, w: &closeRecorder{closeErr: flushErr}, wantErr: "disk full"},
		{name: "write error wins", format: export.Format("pdf"), w: &closeRecorder{closeErr: flushErr}, wantErr: "unsupported export format"},
		{name: "clean write", format: export.FormatJSON, w: &closeRecorder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeReport(tt.w, tt.format, res)
			if !tt.w.closed {
				t.Errorf("Expected writer to be closed")
			}
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
