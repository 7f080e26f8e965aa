package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(t *testing.T) (*Console, *testEnv, *bytes.Buffer) {
	t.Helper()
	env := newTestEnv(t)
	var out bytes.Buffer
	return &Console{
		runner:  env.runner,
		events:  env.srv.events,
		history: env.runs,
		out:     &out,
	}, env, &out
}

func TestConsoleQuit(t *testing.T) {
	c, _, _ := newTestConsole(t)

	assert.True(t, c.Execute("quit"))
	assert.True(t, c.Execute("EXIT"))
	assert.False(t, c.Execute("help"))
}

func TestConsoleUnknownCommand(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.Execute("water")
	assert.Contains(t, out.String(), "Unknown command: water")
}

func TestConsoleSchedule(t *testing.T) {
	c, env, out := newTestConsole(t)

	c.Execute("schd 1,2 5")
	env.runner.Step()
	env.runner.Step()
	assert.Equal(t, "1,2", env.runner.Status().Zones.String())

	c.Execute("pause")
	assert.Contains(t, out.String(), "pause queued")
	env.runner.Step()
	assert.Equal(t, "paused", env.runner.Status().State.String())

	out.Reset()
	c.Execute("schd 1")
	assert.Contains(t, out.String(), "Usage: schd")
}

func TestConsoleSettings(t *testing.T) {
	c, env, out := newTestConsole(t)

	c.Execute("adj 50%")
	assert.Contains(t, out.String(), "adj 50%")

	out.Reset()
	c.Execute("adj 0")
	assert.Contains(t, out.String(), "Error:")

	out.Reset()
	c.Execute("logic inverted")
	assert.Contains(t, out.String(), "logic inverted queued")
	assert.Equal(t, "normal", env.runner.Status().Logic, "applied on the control loop")
	env.runner.Step()
	assert.Equal(t, "inverted", env.runner.Status().Logic)

	out.Reset()
	c.Execute("hold 0")
	assert.Contains(t, out.String(), "hold 0 days")
}

func TestConsoleCyclesAndLog(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.Execute("cycles")
	assert.Contains(t, out.String(), "No cycles defined")

	out.Reset()
	c.Execute("delete Lawn")
	assert.Contains(t, out.String(), "Error:")

	c.Execute("mark rain sensor replaced")
	out.Reset()
	c.Execute("log 5")
	require.NotEmpty(t, out.String())
	assert.Contains(t, out.String(), "rain sensor replaced")

	out.Reset()
	c.Execute("log reset")
	assert.Contains(t, out.String(), "ok")

	out.Reset()
	c.Execute("history")
	assert.Contains(t, out.String(), "No runs recorded")
}

func TestConsoleClearIsDeferred(t *testing.T) {
	c, env, out := newTestConsole(t)

	c.Execute("zone 1 on")
	env.runner.Step()
	require.Equal(t, "1", env.runner.Status().Zones.String())

	c.Execute("clear")
	assert.Contains(t, out.String(), "clear queued")
	assert.Equal(t, "1", env.runner.Status().Zones.String(), "zones switch on the control loop")

	env.runner.Step()
	assert.True(t, env.runner.Status().Zones.IsEmpty())
}
