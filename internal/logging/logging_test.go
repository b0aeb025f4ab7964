package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	l := New("debug", "json")
	assert.Equal(t, logrus.DebugLevel, l.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l = New("loud", "")
	assert.Equal(t, logrus.InfoLevel, l.Level)
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	// Hooks must be usable.
	l.AddHook(&testHook{})
}

type testHook struct{}

func (testHook) Levels() []logrus.Level { return logrus.AllLevels }
func (testHook) Fire(*logrus.Entry) error { return nil }
