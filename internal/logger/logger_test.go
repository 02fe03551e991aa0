package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN shown 3")
	assert.Contains(t, out, "ERROR shown 4")
}

func TestDefaultLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "bogus")

	l.Debugf("nope")
	l.Infof("yes")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "INFO yes")
}

func TestNilWriterDiscards(t *testing.T) {
	l := New(nil, "debug")
	// must not panic
	l.Infof("into the void")
}
