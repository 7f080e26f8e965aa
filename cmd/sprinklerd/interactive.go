package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/sprinkler-go/sprinkler-go/pkg/actuator"
	"github.com/sprinkler-go/sprinkler-go/pkg/controller"
	"github.com/sprinkler-go/sprinkler-go/pkg/history"
	"github.com/sprinkler-go/sprinkler-go/pkg/log"
)

// Console is the interactive command line of the daemon.
type Console struct {
	runner  *controller.Runner
	events  *log.FileLogger
	history *history.Store
	rl      *readline.Instance
	out     io.Writer
}

// NewConsole creates a console. events and runs may be nil.
func NewConsole(runner *controller.Runner, events *log.FileLogger, runs *history.Store) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sprinkler> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{
		runner:  runner,
		events:  events,
		history: runs,
		rl:      rl,
		out:     rl.Stdout(),
	}, nil
}

// Stdout returns a writer that coordinates with the prompt.
// Use it for log output.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until ctx is done or the user quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if quit := c.Execute(input); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the user asked to quit.
func (c *Console) Execute(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "status", "s":
		c.cmdStatus()
	case "zone", "z":
		c.cmdZone(args)
	case "schd":
		c.cmdSchedule(args)
	case controller.ActionPause, controller.ActionResume, controller.ActionSkip, controller.ActionCancel:
		c.runner.Defer(func(ctrl *controller.Controller) error {
			return ctrl.ControlScheduler(cmd)
		})
		fmt.Fprintf(c.out, "%s queued\n", cmd)
	case "cycles", "c":
		c.cmdCycles()
	case "run":
		c.cmdRun(args)
	case "delete":
		c.cmdDelete(args)
	case "clear":
		c.runner.Defer(func(ctrl *controller.Controller) error {
			err := ctrl.ClearCycles()
			if err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
			}
			return err
		})
		fmt.Fprintln(c.out, "clear queued")
	case "next":
		st := c.runner.Status()
		fmt.Fprintf(c.out, "next: %s at %s\n", orNone(st.NextCycle), st.NextString)
	case "hold":
		c.cmdHold(args)
	case "adj":
		c.cmdAdjust(args)
	case "toggle":
		c.cmdToggle(args)
	case "logic":
		c.cmdLogic(args)
	case "log":
		c.cmdLog(args)
	case "mark":
		text := strings.Join(args, " ")
		_ = c.runner.Exec(func(ctrl *controller.Controller) error {
			ctrl.Mark(text)
			return nil
		})
	case "history", "h":
		c.cmdHistory(args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Sprinkler Commands:
  Zones and schedule:
    zone <zones> on|off|toggle   - Switch zones directly (e.g. zone 1,3 on)
    schd <zones> <minutes>       - Queue a manual item
    pause | resume | skip | cancel

  Cycles:
    cycles                       - List cycles
    run <name>                   - Run a cycle now
    delete <name>                - Delete a cycle
    clear                        - Delete all cycles and the hold
    next                         - Show the next scheduled start

  Settings:
    hold [days]                  - Show or set hold (0 = off, -1 = indefinite)
    adj [percent]                - Show or set seasonal adjustment
    toggle [ms]                  - Show or set the inter-zone delay
    logic [normal|inverted]      - Show or set output logic

  Log:
    log [n|reset|size]           - Show the last n events (default 20)
    mark <text>                  - Add a note to the event log
    history [n]                  - Show recent runs

  General:
    status                       - Show controller status
    help                         - Show this help
    quit                         - Exit`)
}

func (c *Console) report(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "ok")
}

func (c *Console) cmdStatus() {
	st := c.runner.Status()
	fmt.Fprintf(c.out, "state:     %s\n", st.State)
	fmt.Fprintf(c.out, "zones on:  %s\n", orNone(st.Zones.String()))
	fmt.Fprintf(c.out, "queue:     %d item(s), %d min left on head\n", len(st.Queue), st.Remaining)
	fmt.Fprintf(c.out, "cycle:     %s\n", orNone(st.Cycle))
	fmt.Fprintf(c.out, "next:      %s at %s\n", orNone(st.NextCycle), st.NextString)
	fmt.Fprintf(c.out, "hold:      %s\n", st.HoldResume)
	fmt.Fprintf(c.out, "adj:       %d%%\n", st.Adjustment)
	fmt.Fprintf(c.out, "delay:     %v\n", st.InterZoneDelay)
	if st.Logic != "" {
		fmt.Fprintf(c.out, "logic:     %s (registers 0x%02X)\n", st.Logic, st.Registers)
	}
}

func (c *Console) cmdZone(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: zone <zones> on|off|toggle")
		return
	}
	zones, action := args[0], strings.ToLower(args[1])
	c.runner.Defer(func(ctrl *controller.Controller) error {
		err := ctrl.ControlZone(zones, action)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		return err
	})
}

func (c *Console) cmdSchedule(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: schd <zones> <minutes>")
		return
	}
	zones, minutes := args[0], args[1]
	c.runner.Defer(func(ctrl *controller.Controller) error {
		err := ctrl.ScheduleItem(zones, minutes)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		return err
	})
}

func (c *Console) cmdCycles() {
	var lines []string
	_ = c.runner.Exec(func(ctrl *controller.Controller) error {
		for _, def := range ctrl.Cycles() {
			lines = append(lines, def.String())
		}
		return nil
	})
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "No cycles defined")
		return
	}
	for _, l := range lines {
		fmt.Fprintln(c.out, l)
	}
}

func (c *Console) cmdRun(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: run <name>")
		return
	}
	name := args[0]
	c.runner.Defer(func(ctrl *controller.Controller) error {
		err := ctrl.RunCycle(name)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		return err
	})
}

func (c *Console) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: delete <name>")
		return
	}
	c.report(c.runner.Exec(func(ctrl *controller.Controller) error {
		return ctrl.DeleteCycle(args[0])
	}))
}

func (c *Console) cmdHold(args []string) {
	if len(args) == 1 {
		days, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(c.out, "Invalid days: %s\n", args[0])
			return
		}
		if err := c.runner.Exec(func(ctrl *controller.Controller) error { return ctrl.SetHold(days) }); err != nil {
			c.report(err)
			return
		}
	}
	st := c.runner.Status()
	fmt.Fprintf(c.out, "hold %d days, resume: %s\n", st.HoldDays, st.HoldResume)
}

func (c *Console) cmdAdjust(args []string) {
	if len(args) == 1 {
		pct, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
		if err != nil {
			fmt.Fprintf(c.out, "Invalid percentage: %s\n", args[0])
			return
		}
		if err := c.runner.Exec(func(ctrl *controller.Controller) error { return ctrl.SetAdjustment(pct) }); err != nil {
			c.report(err)
			return
		}
	}
	fmt.Fprintf(c.out, "adj %d%%\n", c.runner.Status().Adjustment)
}

func (c *Console) cmdToggle(args []string) {
	if len(args) == 1 {
		ms, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(c.out, "Invalid delay: %s\n", args[0])
			return
		}
		d := time.Duration(ms) * time.Millisecond
		if err := c.runner.Exec(func(ctrl *controller.Controller) error { return ctrl.SetInterZoneDelay(d) }); err != nil {
			c.report(err)
			return
		}
	}
	fmt.Fprintf(c.out, "toggle delay %v\n", c.runner.Status().InterZoneDelay)
}

func (c *Console) cmdLogic(args []string) {
	if len(args) == 1 {
		l, err := actuator.ParseLogic(args[0])
		if err != nil {
			c.report(err)
			return
		}
		if c.runner.Status().Logic == "" {
			c.report(controller.ErrUnsupported)
			return
		}
		c.runner.Defer(func(ctrl *controller.Controller) error {
			err := ctrl.SetLogic(l)
			if err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
			}
			return err
		})
		fmt.Fprintf(c.out, "logic %s queued\n", l)
		return
	}
	st := c.runner.Status()
	fmt.Fprintf(c.out, "logic %s, output enable %v\n", orNone(st.Logic), st.OutputEnabled)
}

func (c *Console) cmdLog(args []string) {
	if c.events == nil {
		fmt.Fprintln(c.out, "Event log disabled")
		return
	}

	n := 20
	if len(args) == 1 {
		switch args[0] {
		case "reset":
			c.report(c.events.Reset())
			return
		case "size":
			size, err := c.events.Size()
			if err != nil {
				c.report(err)
				return
			}
			fmt.Fprintf(c.out, "%d bytes\n", size)
			return
		default:
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				fmt.Fprintf(c.out, "Invalid count: %s\n", args[0])
				return
			}
			n = v
		}
	}

	events, err := log.ReadAll(c.events.Fs(), c.events.Path(), log.Filter{})
	if err != nil {
		c.report(err)
		return
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}
	loc := c.runner.Status().Time.Location()
	for _, e := range events {
		fmt.Fprintln(c.out, e.Line(loc))
	}
}

func (c *Console) cmdHistory(args []string) {
	if c.history == nil {
		fmt.Fprintln(c.out, "Run history disabled")
		return
	}
	limit := 10
	if len(args) == 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			limit = v
		}
	}
	runs, err := c.history.List(limit)
	if err != nil {
		c.report(err)
		return
	}
	for _, r := range runs {
		name := r.Cycle
		if name == "" {
			name = "(" + r.Source + ")"
		}
		fmt.Fprintf(c.out, "%s  %-20s %-9s adj=%d%% items=%d\n",
			r.StartedAt.Local().Format(time.DateTime), name, r.Status, r.Adjustment, len(r.Items))
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No runs recorded")
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
