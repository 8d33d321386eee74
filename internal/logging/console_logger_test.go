package logging

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

var (
	_ nutriload.Logger = (*ConsoleLogger)(nil)
	_ nutriload.Logger = (*ZapLogger)(nil)
	_ nutriload.Logger = (*NullLogger)(nil)
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
}

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := newConsoleLogger(&buf, true, fixedClock)

	logger.Verbose("test message: %s", "value")

	assert.Equal(t, "[09:05:07] [VERBOSE] test message: value\n", buf.String())
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := newConsoleLogger(&buf, false, fixedClock)

	logger.Verbose("test message: %s", "value")

	assert.Empty(t, buf.String())
}

func TestConsoleLogger_Levels(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *ConsoleLogger)
		want string
	}{
		{"info", func(l *ConsoleLogger) { l.Info("Loaded %d categories", 28) }, "[09:05:07] Loaded 28 categories\n"},
		{"warn", func(l *ConsoleLogger) { l.Warn("dropped %d foods", 4) }, "[09:05:07] [WARN] dropped 4 foods\n"},
		{"error", func(l *ConsoleLogger) { l.Error("stage failed") }, "[09:05:07] [ERROR] stage failed\n"},
		{"percent without args", func(l *ConsoleLogger) { l.Info("100% done") }, "[09:05:07] 100% done\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newConsoleLogger(&buf, false, fixedClock))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := newConsoleLogger(&buf, true, fixedClock)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 30)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, "[09:05:07] "), "line %d appears corrupted: %q", i, line)
	}
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewZapLoggerFromCore(core, "run_id", "abc")

	logger.Verbose("detail %d", 1)
	logger.Info("Loaded %d foods", 3)
	logger.Warn("dropped %d", 1)
	logger.Error("boom")

	entries := logs.All()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
		assert.Equal(t, "Loaded 3 foods", entries[1].Message)
		assert.Equal(t, zap.WarnLevel, entries[2].Level)
		assert.Equal(t, zap.ErrorLevel, entries[3].Level)
		assert.Equal(t, "abc", entries[1].ContextMap()["run_id"])
	}
}

func TestNullLogger_DiscardsAllMessages(t *testing.T) {
	logger := NewNullLogger()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Warn("warn %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()
}

func BenchmarkConsoleLogger_VerboseDisabled(b *testing.B) {
	var buf bytes.Buffer
	logger := newConsoleLogger(&buf, false, fixedClock)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("benchmark message %d", i)
	}
}

func ExampleNullLogger() {
	logger := NewNullLogger()
	logger.Info("This message is discarded")
	fmt.Println("Done")
	// Output:
	// Done
}
