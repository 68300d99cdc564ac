package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriterTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "production", "worker")

	logger.Info().Str("form_id", "f1").Msg("export ready")

	out := buf.String()
	for _, want := range []string{"export ready", "component=worker", "env=production", "form_id=f1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
