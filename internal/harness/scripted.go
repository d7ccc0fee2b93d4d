package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/windlass-io/windlass/internal/unit"
)

// scriptedDriver is the fake unit.Driver scenarios run on: Plan returns
// the scripted changes, Perform always succeeds, and Invoke consults the
// scripted failure table.
type scriptedDriver struct {
	changes    []unit.Change
	applyError string
	operations []string
	failures   map[string]string

	invoked []string
}

func (d *scriptedDriver) Plan(ctx context.Context) ([]unit.Change, error) {
	if d.applyError != "" {
		return nil, errors.New(d.applyError)
	}
	return d.changes, nil
}

func (d *scriptedDriver) Perform(ctx context.Context, change unit.Change) error {
	return nil
}

func (d *scriptedDriver) Operations() []string { return d.operations }

func (d *scriptedDriver) Invoke(operation string) error {
	d.invoked = append(d.invoked, operation)
	if msg, ok := d.failures[operation]; ok {
		return errors.New(msg)
	}
	return nil
}

// buildScriptedUnit turns a scenario unit into a concrete unit over the
// scripted driver, mirroring how the catalog builder configures real
// units.
func buildScriptedUnit(su ScenarioUnit, passNoop bool) *unit.Unit {
	typ := su.Type
	if typ == "" {
		typ = "test"
	}
	changes := make([]unit.Change, len(su.Changes))
	for i, c := range su.Changes {
		message := c.Message
		if message == "" {
			message = fmt.Sprintf("%s %s", c.Event, su.Name)
		}
		changes[i] = unit.Change{Event: c.Event, Message: message}
	}
	driver := &scriptedDriver{
		changes:    changes,
		applyError: su.ApplyError,
		operations: su.Operations,
		failures:   su.FailOperations,
	}
	return unit.New(unit.Config{
		Name:        su.Name,
		Type:        typ,
		SelfRefresh: su.SelfRefresh,
		Noop:        passNoop || su.Noop,
		Removing:    su.Ensure == "absent",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, driver)
}
