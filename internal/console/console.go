// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package console is a line-oriented operator shell over the lifecycle
// manager. One command per line; output is plain text.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/lifecycle"
	"github.com/AccelByte/extend-laundry-pet/pkg/pet"
	"github.com/AccelByte/extend-laundry-pet/pkg/roster"
	"github.com/sirupsen/logrus"
)

const commandTimeout = 10 * time.Second

// ErrQuit is returned by Run when the operator asked to stop the process.
var ErrQuit = errors.New("console: quit")

const usage = `commands:
  list                       attached pets
  status <pet>               health, stage and countdown
  add <pet> [name]           create and attach a pet with roster defaults
  wash <pet>                 start a cycle
  dry <pet>                  move a washed load into the dryer
  fold <pet>                 finish a dried load
  extend <pet> <minutes>     dry a little longer
  complete <pet>             finish a dried load
  cancel <pet>               stop the running countdown
  delete <pet>               remove the pet and everything it owns
  help
  quit`

// Console reads commands from in and writes results to out.
type Console struct {
	manager *lifecycle.Manager
	pets    pet.Store
	roster  *roster.Config
	clock   clock.Clock
	in      io.Reader
	out     io.Writer
}

// New creates a console. roster supplies the defaults for pets added at
// runtime.
func New(manager *lifecycle.Manager, pets pet.Store, r *roster.Config, clk clock.Clock, in io.Reader, out io.Writer) *Console {
	if r == nil {
		r = &roster.Config{Defaults: roster.DefaultDefaults}
	}
	return &Console{
		manager: manager,
		pets:    pets,
		roster:  r,
		clock:   clk,
		in:      in,
		out:     out,
	}
}

// Run processes commands until the input ends, "quit" is read or ctx is
// cancelled between commands. The end of input returns nil; "quit" returns
// ErrQuit.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	c.printf("laundry pet console, type 'help' for commands\n")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return ErrQuit
		}
		c.Execute(ctx, line)
	}

	return scanner.Err()
}

// Execute runs one command line.
func (c *Console) Execute(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help":
		c.printf("%s\n", usage)
	case "list":
		c.list(ctx)
	case "add":
		if len(args) < 1 {
			c.printf("usage: add <pet> [name]\n")
			return
		}
		c.add(ctx, args[0], strings.Join(args[1:], " "))
	case "status":
		c.withPet(args, func(ctrl *lifecycle.Controller) error {
			return c.status(ctx, ctrl)
		})
	case "wash":
		c.run(args, "Washing started.", func(ctrl *lifecycle.Controller) error {
			return ctrl.StartCycle(ctx)
		})
	case "dry":
		c.run(args, "Drying started.", func(ctrl *lifecycle.Controller) error {
			return ctrl.AdvanceAfterStageA(ctx)
		})
	case "fold":
		c.run(args, "Laundry folded, cycle complete.", func(ctrl *lifecycle.Controller) error {
			return ctrl.AdvanceAfterStageB(ctx)
		})
	case "complete":
		c.run(args, "Cycle complete.", func(ctrl *lifecycle.Controller) error {
			return ctrl.CompleteCycle(ctx)
		})
	case "cancel":
		c.withPet(args, func(ctrl *lifecycle.Controller) error {
			st, err := ctrl.Status(ctx)
			if err != nil {
				return err
			}
			if !st.TimerActive {
				c.printf("No timer is running.\n")
				return nil
			}
			if err := ctrl.CancelActiveTimer(ctx); err != nil {
				return err
			}
			if st, err = ctrl.Status(ctx); err != nil {
				return err
			}
			c.printf("Timer cancelled, %s is now %s.\n", st.Pet.Name, st.Stage)
			return nil
		})
	case "extend":
		if len(args) != 2 {
			c.printf("usage: extend <pet> <minutes>\n")
			return
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil {
			c.printf("minutes must be a number\n")
			return
		}
		c.run(args[:1], fmt.Sprintf("Drying extended by %d minutes.", minutes), func(ctrl *lifecycle.Controller) error {
			return ctrl.ExtendStageB(ctx, minutes)
		})
	case "delete":
		if len(args) != 1 {
			c.printf("usage: delete <pet>\n")
			return
		}
		if err := c.manager.Delete(ctx, args[0]); err != nil {
			c.fail(err)
			return
		}
		c.printf("Pet %s deleted.\n", args[0])
	default:
		c.printf("unknown command %q, type 'help' for commands\n", cmd)
	}
}

func (c *Console) list(ctx context.Context) {
	ids := c.manager.IDs()
	if len(ids) == 0 {
		c.printf("no pets attached\n")
		return
	}
	for _, id := range ids {
		ctrl, err := c.manager.Get(id)
		if err != nil {
			continue
		}
		st, err := ctrl.Status(ctx)
		if err != nil {
			c.printf("%-12s unavailable\n", id)
			continue
		}
		c.printf("%-12s %-16s health %3d  %s\n", id, st.Pet.Name, st.Decay.Health, st.Stage)
	}
}

func (c *Console) add(ctx context.Context, id, name string) {
	p := c.roster.NewPet(roster.PetConfig{ID: id, Name: name}, c.clock.Now())
	if err := c.pets.Create(ctx, p); err != nil {
		if errors.Is(err, pet.ErrAlreadyExists) {
			c.printf("Pet %s already exists.\n", id)
			return
		}
		c.fail(err)
		return
	}
	if _, err := c.manager.Attach(ctx, id); err != nil {
		c.fail(err)
		return
	}
	c.printf("Pet %s added.\n", id)
}

func (c *Console) status(ctx context.Context, ctrl *lifecycle.Controller) error {
	st, err := ctrl.Status(ctx)
	if err != nil {
		return err
	}

	c.printf("%s (%s): health %d, %s\n", st.Pet.ID, st.Pet.Name, st.Decay.Health, st.Decay.Mood)
	c.printf("  stage: %s\n", st.Stage)
	if st.TimerActive {
		c.printf("  %s: %s left\n", st.TimerKind, st.Remaining.Round(time.Second))
	}
	if len(st.Allowed) > 0 {
		names := make([]string, len(st.Allowed))
		for i, a := range st.Allowed {
			names[i] = a.String()
		}
		c.printf("  next: %s\n", strings.Join(names, ", "))
	}
	s := st.Pet.Stats
	c.printf("  cycles %d, streak %d (best %d)\n", s.TotalCyclesCompleted, s.CurrentStreak, s.LongestStreak)
	return nil
}

func (c *Console) run(args []string, okMessage string, op func(*lifecycle.Controller) error) {
	c.withPet(args, func(ctrl *lifecycle.Controller) error {
		if err := op(ctrl); err != nil {
			return err
		}
		c.printf("%s\n", okMessage)
		return nil
	})
}

func (c *Console) withPet(args []string, op func(*lifecycle.Controller) error) {
	if len(args) != 1 {
		c.printf("expected exactly one pet id\n")
		return
	}
	ctrl, err := c.manager.Get(args[0])
	if err != nil {
		c.printf("No pet called %s.\n", args[0])
		return
	}
	if err := op(ctrl); err != nil {
		c.fail(err)
	}
}

func (c *Console) fail(err error) {
	logrus.Debugf("console command failed: %v", err)
	c.printf("%s\n", lifecycle.UserMessage(err))
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
