package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput("debug", "json", &buf)

	log.WithField("username", "alice").Info("signed up")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "signed up", entry["msg"])
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewTextAndBadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput("loud", "TEXT", &buf)

	log.Info("hello")

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "msg=hello")
}
