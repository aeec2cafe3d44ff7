package lineagg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func drain(t *testing.T, a *Aggregator) []string {
	t.Helper()
	var out []string
	for {
		rec, err := a.Read()
		if err != nil {
			break
		}
		out = append(out, string(rec))
	}
	return out
}

func TestAggregator_ContinueThrough(t *testing.T) {
	a, err := New(Config{Mode: ModeContinueThrough, ConditionPattern: `^\s`, StartPattern: `^(ERROR|INFO)`, Timeout: time.Second})
	assert.NoError(t, err)

	lines := []string{"ERROR start", "  detail1", "  detail2", "INFO ok", "  cont"}
	var out []string
	for _, l := range lines {
		a.Write([]byte(l))
		out = append(out, drain(t, a)...)
	}
	a.Flush()
	out = append(out, drain(t, a)...)

	assert.Equal(t, []string{
		"ERROR start\n  detail1\n  detail2",
		"INFO ok\n  cont",
	}, out)
}

func TestAggregator_ContinuePast(t *testing.T) {
	a, err := New(Config{Mode: ModeContinuePast, ConditionPattern: `^\s`, StartPattern: `^(ERROR|INFO)`, Timeout: time.Second})
	assert.NoError(t, err)

	lines := []string{"ERROR start", "  detail1", "  detail2", "INFO ok", "  cont"}
	var out []string
	for _, l := range lines {
		a.Write([]byte(l))
		out = append(out, drain(t, a)...)
	}
	a.Flush()
	out = append(out, drain(t, a)...)

	assert.Equal(t, []string{
		"ERROR start\n  detail1\n  detail2\nINFO ok",
		"  cont",
	}, out)
}

func TestAggregator_HaltBefore(t *testing.T) {
	a, err := New(Config{Mode: ModeHaltBefore, ConditionPattern: `^(INFO|ERROR)`, StartPattern: `^(ERROR|INFO)`, Timeout: time.Second})
	assert.NoError(t, err)

	lines := []string{"ERROR start", "  detail1", "  detail2", "INFO ok", "  cont"}
	var out []string
	for _, l := range lines {
		a.Write([]byte(l))
		out = append(out, drain(t, a)...)
	}
	a.Flush()
	out = append(out, drain(t, a)...)

	assert.Equal(t, []string{
		"ERROR start\n  detail1\n  detail2",
		"INFO ok\n  cont",
	}, out)
}

func TestAggregator_HaltWith(t *testing.T) {
	a, err := New(Config{Mode: ModeHaltWith, ConditionPattern: `^(INFO|ERROR)`, StartPattern: `^(ERROR|INFO)`, Timeout: time.Second})
	assert.NoError(t, err)

	lines := []string{"ERROR start", "  detail1", "  detail2", "INFO ok", "  cont"}
	var out []string
	for _, l := range lines {
		a.Write([]byte(l))
		out = append(out, drain(t, a)...)
	}
	a.Flush()
	out = append(out, drain(t, a)...)

	assert.Equal(t, []string{
		"ERROR start\n  detail1\n  detail2\nINFO ok",
		"  cont",
	}, out)
}

func TestAggregator_JavaStackTraceGrouping(t *testing.T) {
	a, err := New(Config{
		Mode:             ModeContinueThrough,
		StartPattern:     `^(ERROR|WARN|INFO|Exception)`,
		ConditionPattern: `^(\s|at\s|Caused by:)`,
		Timeout:          200 * time.Millisecond,
	})
	assert.NoError(t, err)

	lines := []string{
		"ERROR Something failed",
		"    at com.example.App.main(App.java:10)",
		"Caused by: java.lang.IllegalStateException: bad",
		"    at com.example.Service.call(Service.java:42)",
		"INFO next record",
		"    at com.example.Other.run(Other.java:5)",
	}
	var out []string
	for _, l := range lines {
		a.Write([]byte(l))
		out = append(out, drain(t, a)...)
	}
	a.Flush()
	out = append(out, drain(t, a)...)

	assert.Equal(t, []string{
		"ERROR Something failed\n    at com.example.App.main(App.java:10)\nCaused by: java.lang.IllegalStateException: bad\n    at com.example.Service.call(Service.java:42)",
		"INFO next record\n    at com.example.Other.run(Other.java:5)",
	}, out)
}

func TestAggregator_CheckTimeoutFlushesIdleBuffer(t *testing.T) {
	a, err := New(Config{Mode: ModeContinueThrough, StartPattern: `^(ERROR|INFO)`, ConditionPattern: `^\s`, Timeout: 50 * time.Millisecond})
	assert.NoError(t, err)

	a.Write([]byte("ERROR start"))
	a.Write([]byte("  detail1"))
	assert.Empty(t, drain(t, a))

	a.CheckTimeout(time.Now().Add(100 * time.Millisecond))
	out := drain(t, a)
	assert.Equal(t, []string{"ERROR start\n  detail1"}, out)
}

func TestConfig_ValidateRequiresFields(t *testing.T) {
	_, err := New(Config{Mode: ModeHaltWith, Timeout: time.Second})
	assert.Error(t, err)

	_, err = New(Config{Mode: ModeHaltWith, StartPattern: "^x", ConditionPattern: "^y", Timeout: 0})
	assert.Error(t, err)

	_, err = New(Config{Mode: "bogus", StartPattern: "^x", ConditionPattern: "^y", Timeout: time.Second})
	assert.Error(t, err)
}
