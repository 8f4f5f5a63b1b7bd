package utillog

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	lv, ok := ParseLogLevel(" debug ")
	require.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, lv)

	lv, ok = ParseLogLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, logrus.InfoLevel, lv)
}

func TestFormatter(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithFields(logrus.Fields{
		componentField: "global",
		callerField:    "async.(*Pool).worker",
	})
	entry.Time = time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = "worker replaced"

	out, err := CustomFormatter().Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 03:04:05.006 WARN  [global      ] async.(*Pool).worker           : worker replaced\n", string(out))
}

func TestLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer logger.SetLevel(logrus.InfoLevel)

	require.True(t, SetLevel("info"))
	assert.False(t, IsDebugLevel())
	Debugf("hidden %v", 1)
	assert.Empty(t, buf.String())

	Infof("shown %v", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "utillog.TestLevelAndOutput")

	buf.Reset()
	WithComponent("pool-a").Warn("careful")
	assert.Contains(t, buf.String(), "[pool-a")

	assert.False(t, SetLevel("nope"))
}
