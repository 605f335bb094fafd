package gfx

import "testing"

func TestChooseQueueFamilies(t *testing.T) {
	tests := []struct {
		name         string
		graphics     []bool
		present      []bool
		wantGraphics int
		wantPresent  int
		wantErr      bool
	}{
		{
			name:         "shared family",
			graphics:     []bool{true},
			present:      []bool{true},
			wantGraphics: 0,
			wantPresent:  0,
		},
		{
			name:         "later family does both",
			graphics:     []bool{true, false, true},
			present:      []bool{false, true, true},
			wantGraphics: 2,
			wantPresent:  2,
		},
		{
			name:         "separate families",
			graphics:     []bool{false, true, false},
			present:      []bool{false, false, true},
			wantGraphics: 1,
			wantPresent:  2,
		},
		{
			name:     "no present",
			graphics: []bool{true, true},
			present:  []bool{false, false},
			wantErr:  true,
		},
		{
			name:     "no graphics",
			graphics: []bool{false},
			present:  []bool{true},
			wantErr:  true,
		},
		{
			name:    "no families",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graphics, present, err := chooseQueueFamilies(tt.graphics, tt.present)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("got families %d/%d, want an error", graphics, present)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if graphics != tt.wantGraphics || present != tt.wantPresent {
				t.Errorf("got %d/%d, want %d/%d", graphics, present, tt.wantGraphics, tt.wantPresent)
			}
		})
	}
}
