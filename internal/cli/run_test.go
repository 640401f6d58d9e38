package cli

import (
	"reflect"
	"testing"
)

func TestSplitDashArgs(t *testing.T) {
	tests := []struct {
		name           string
		dash           []string
		wantOverrides  map[string]string
		wantPositional []string
	}{
		{
			name:          "overrides only",
			dash:          []string{"env=dev", "target=fast"},
			wantOverrides: map[string]string{"env": "dev", "target": "fast"},
		},
		{
			name:           "positionals only",
			dash:           []string{"one", "two"},
			wantOverrides:  map[string]string{},
			wantPositional: []string{"one", "two"},
		},
		{
			name:           "mixed",
			dash:           []string{"env=dev", "file.txt"},
			wantOverrides:  map[string]string{"env": "dev"},
			wantPositional: []string{"file.txt"},
		},
		{
			name:          "value containing equals",
			dash:          []string{"expr=a=b"},
			wantOverrides: map[string]string{"expr": "a=b"},
		},
		{
			name:           "leading equals is positional",
			dash:           []string{"=weird"},
			wantOverrides:  map[string]string{},
			wantPositional: []string{"=weird"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides, positional := splitDashArgs(tt.dash)
			if tt.wantOverrides == nil {
				tt.wantOverrides = map[string]string{}
			}
			if !reflect.DeepEqual(overrides, tt.wantOverrides) {
				t.Errorf("overrides = %v, want %v", overrides, tt.wantOverrides)
			}
			if !reflect.DeepEqual(positional, tt.wantPositional) {
				t.Errorf("positional = %v, want %v", positional, tt.wantPositional)
			}
		})
	}
}
