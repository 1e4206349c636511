package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.InfoLevel},
		{1, zerolog.DebugLevel},
		{2, zerolog.TraceLevel},
		{5, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.verbosity); got != tt.want {
			t.Errorf("LevelFor(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, 0)
	t.Cleanup(func() { Setup(&bytes.Buffer{}, 0) })

	log.Info().Msg("U2723QX: Switch to DP1")
	log.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, "U2723QX: Switch to DP1") {
		t.Errorf("info line missing: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line printed at verbosity 0: %q", out)
	}

	buf.Reset()
	Setup(&buf, 1)
	log.Debug().Msg("U2723QX: No changes (cached)")
	if !strings.Contains(buf.String(), "debug: U2723QX: No changes (cached)") {
		t.Errorf("debug line = %q", buf.String())
	}
}
