package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreflight_Enabled(t *testing.T) {
	assert.False(t, Preflight{}.Enabled())
	assert.True(t, Preflight{CPUBelow: 90}.Enabled())
	assert.True(t, Preflight{MemoryBelow: 90}.Enabled())
	assert.True(t, Preflight{LoadAvgBelow: 4.0}.Enabled())
	assert.True(t, Preflight{DiskFreeAbove: 5}.Enabled())
}

func TestPreflight_Check(t *testing.T) {
	tbl := []struct {
		name       string
		pf         Preflight
		wantOK     bool
		wantReason string // substring, empty means no reason expected
	}{
		{name: "no checks configured", pf: Preflight{}, wantOK: true},
		{name: "memory below generous threshold", pf: Preflight{MemoryBelow: 100}, wantOK: true},
		{name: "memory over impossible threshold", pf: Preflight{MemoryBelow: 1}, wantOK: false, wantReason: "memory at"},
		{name: "disk free above tiny threshold", pf: Preflight{DiskFreeAbove: 1, DiskFreePath: "/"}, wantOK: true},
		{name: "disk free impossible threshold", pf: Preflight{DiskFreeAbove: 101}, wantOK: false, wantReason: "disk free at"},
		{name: "load below generous threshold", pf: Preflight{LoadAvgBelow: 10000}, wantOK: true},
		{name: "bad disk path", pf: Preflight{DiskFreeAbove: 1, DiskFreePath: "/definitely/not/there"},
			wantOK: false, wantReason: "disk usage"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := tt.pf.Check()
			assert.Equal(t, tt.wantOK, ok, reason)
			if tt.wantReason == "" {
				assert.Empty(t, reason)
				return
			}
			assert.Contains(t, reason, tt.wantReason)
		})
	}
}
