package specgloss

import (
	"runtime"
	"testing"
)

func TestDefaultMergeOptions(t *testing.T) {
	o := defaultMergeOptions()
	if o.workers != 0 {
		t.Errorf("workers = %d, want 0", o.workers)
	}
	if o.rowsPerTask != 0 {
		t.Errorf("rowsPerTask = %d, want 0", o.rowsPerTask)
	}
}

func TestNewMerger_Options(t *testing.T) {
	tests := []struct {
		name        string
		opts        []MergeOption
		wantWorkers int
		wantRows    int
	}{
		{"default", nil, runtime.GOMAXPROCS(0), 0},
		{"one worker", []MergeOption{WithWorkers(1)}, 1, 0},
		{"negative workers", []MergeOption{WithWorkers(-3)}, runtime.GOMAXPROCS(0), 0},
		{"rows per task", []MergeOption{WithWorkers(2), WithRowsPerTask(16)}, 2, 16},
		{"last wins", []MergeOption{WithWorkers(2), WithWorkers(3)}, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMerger(tt.opts...)
			defer m.Close()

			if got := m.Workers(); got != tt.wantWorkers {
				t.Errorf("Workers() = %d, want %d", got, tt.wantWorkers)
			}
			if m.opts.rowsPerTask != tt.wantRows {
				t.Errorf("rowsPerTask = %d, want %d", m.opts.rowsPerTask, tt.wantRows)
			}
		})
	}
}
