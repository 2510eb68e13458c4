package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New(Options{}).GetLevel())
	assert.Equal(t, logrus.WarnLevel, New(Options{Level: "warn"}).GetLevel())
	assert.Equal(t, logrus.DebugLevel, New(Options{Level: "error", Verbose: true}).GetLevel())
	assert.Equal(t, logrus.DebugLevel, New(Options{Verbose: true}).GetLevel())
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "json", Output: &buf})

	log.WithField("table", "Products").Info("created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created", entry["msg"])
	assert.Equal(t, "Products", entry["table"])
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("dropped")
	assert.Equal(t, logrus.PanicLevel, log.GetLevel())
}
