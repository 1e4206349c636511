package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/display-toggle/display-toggle/pkg/monitor"
)

func TestDefault(t *testing.T) {
	table := Default()

	if table.Primary != PrimarySource {
		t.Errorf("Primary = %v, want %v", table.Primary, PrimarySource)
	}

	tests := []struct {
		model  string
		want   monitor.InputSource
		wantOK bool
	}{
		{"U2723QX", monitor.DP1, true},
		{"P3223QE", monitor.HDMI1, true},
		{"P2415Q", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, ok := table.Alternate(tt.model)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Alternate(%q) = %v, %v; want %v, %v", tt.model, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		content     string
		noFile      bool
		wantPrimary monitor.InputSource
		wantModels  []string
		check       map[string]monitor.InputSource
		wantErr     bool
	}{
		{
			name:        "Missing file",
			noFile:      true,
			wantPrimary: PrimarySource,
			wantModels:  []string{"P3223QE", "U2723QX"},
		},
		{
			name:        "Adds and overrides models",
			content:     "alternates:\n  U2723QX: HDMI2\n  S2721QS: 0x0f\n",
			wantPrimary: PrimarySource,
			wantModels:  []string{"P3223QE", "S2721QS", "U2723QX"},
			check:       map[string]monitor.InputSource{"U2723QX": monitor.HDMI2, "S2721QS": monitor.DP1},
		},
		{
			name:        "Overrides primary",
			content:     "primary: DP2\n",
			wantPrimary: monitor.DP2,
			wantModels:  []string{"P3223QE", "U2723QX"},
		},
		{
			name:    "Unknown source name",
			content: "alternates:\n  U2723QX: usb\n",
			wantErr: true,
		},
		{
			name:    "Alternate equals primary",
			content: "alternates:\n  U2723QX: 27\n",
			wantErr: true,
		},
		{
			name:    "Primary collides with built-in alternate",
			content: "primary: DP1\n",
			wantErr: true,
		},
		{
			name:        "Primary moved with colliding entry overridden",
			content:     "primary: DP1\nalternates:\n  U2723QX: HDMI2\n",
			wantPrimary: monitor.DP1,
			wantModels:  []string{"P3223QE", "U2723QX"},
			check:       map[string]monitor.InputSource{"U2723QX": monitor.HDMI2},
		},
		{
			name:    "Malformed YAML",
			content: "alternates: [",
			wantErr: true,
		},
		{
			name:    "Non-scalar source",
			content: "alternates:\n  U2723QX: [DP1]\n",
			wantErr: true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, fmt.Sprintf("sources-%d.yaml", i))
			if !tt.noFile {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			table, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Error("Load() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if table.Primary != tt.wantPrimary {
				t.Errorf("Primary = %v, want %v", table.Primary, tt.wantPrimary)
			}
			if !reflect.DeepEqual(table.Models(), tt.wantModels) {
				t.Errorf("Models() = %v, want %v", table.Models(), tt.wantModels)
			}
			for model, want := range tt.check {
				if got, _ := table.Alternate(model); got != want {
					t.Errorf("Alternate(%s) = %v, want %v", model, got, want)
				}
			}
		})
	}
}

func TestLoadEmptyPath(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if len(table.Models()) != 2 {
		t.Errorf("Models() = %v, want built-ins", table.Models())
	}
}

func TestSet(t *testing.T) {
	table := Default()
	table.Set("S2721QS", monitor.HDMI2)
	table.Set("U2723QX", monitor.DP2)

	if got, ok := table.Alternate("S2721QS"); !ok || got != monitor.HDMI2 {
		t.Errorf("Alternate(S2721QS) = %v, %v; want HDMI2, true", got, ok)
	}
	if got, _ := table.Alternate("U2723QX"); got != monitor.DP2 {
		t.Errorf("Alternate(U2723QX) = %v, want DP2", got)
	}
	if err := table.validate(); err != nil {
		t.Errorf("validate() error: %v", err)
	}

	table.Set("P2415Q", table.Primary)
	if err := table.validate(); err == nil {
		t.Error("validate() error = nil for an alternate equal to the primary")
	}
}
