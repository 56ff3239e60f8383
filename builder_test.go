package fsmkit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit"
)

func TestBuilderDeclarationOrder(t *testing.T) {
	t.Parallel()

	t.Run("transitions may be declared before states", func(t *testing.T) {
		t.Parallel()

		def, err := fsmkit.NewDefinition("idle").
			Transition("idle", "START", "running").
			State("running").
			State("idle").
			Build()
		require.NoError(t, err)

		machine := fsmkit.MustNew(def)
		snap, err := machine.Send(fsmkit.Event{Type: "START"})
		require.NoError(t, err)
		assert.Equal(t, fsmkit.StateID("running"), snap.Value)
	})

	t.Run("hook options append in order", func(t *testing.T) {
		t.Parallel()

		var trace []string
		record := func(label string) fsmkit.ActionFunc {
			return func(ctx fsmkit.Context, evt fsmkit.Event) {
				trace = append(trace, label)
			}
		}

		def, err := fsmkit.NewDefinition("a").
			State("a").
			State("b",
				fsmkit.WithEntry(record("first"), record("second")),
				fsmkit.WithEntry(record("third")),
			).
			Transition("a", "GO", "b").
			Build()
		require.NoError(t, err)

		machine := fsmkit.MustNew(def)
		_, err = machine.Send(fsmkit.Event{Type: "GO"})
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, trace)
	})

	t.Run("later guard replaces earlier", func(t *testing.T) {
		t.Parallel()

		def, err := fsmkit.NewDefinition("a").
			State("a").
			State("b").
			Transition("a", "GO", "b",
				fsmkit.WithGuard(func(ctx fsmkit.Context, evt fsmkit.Event) bool { return false }),
				fsmkit.WithGuard(func(ctx fsmkit.Context, evt fsmkit.Event) bool { return true }),
			).
			Build()
		require.NoError(t, err)

		machine := fsmkit.MustNew(def)
		snap, err := machine.Send(fsmkit.Event{Type: "GO"})
		require.NoError(t, err)
		assert.Equal(t, fsmkit.StateID("b"), snap.Value)
	})

	t.Run("nil hooks and updates are ignored", func(t *testing.T) {
		t.Parallel()

		def, err := fsmkit.NewDefinition("a").
			State("a", fsmkit.WithEntry(nil), fsmkit.WithExit(nil)).
			State("b").
			Transition("a", "GO", "b", fsmkit.WithUpdates(nil)).
			Build()
		require.NoError(t, err)

		machine := fsmkit.MustNew(def)
		snap, err := machine.Send(fsmkit.Event{Type: "GO"})
		require.NoError(t, err)
		assert.Equal(t, fsmkit.StateID("b"), snap.Value)
	})
}

func TestBuilderConsumed(t *testing.T) {
	t.Parallel()

	builder := fsmkit.NewDefinition("idle").State("idle")

	def, err := builder.Build()
	require.NoError(t, err)
	require.NotNil(t, def)

	again, err := builder.Build()
	require.ErrorIs(t, err, fsmkit.ErrBuilderConsumed)
	assert.Nil(t, again)
}

func TestMustBuild(t *testing.T) {
	t.Parallel()

	t.Run("returns definition on success", func(t *testing.T) {
		t.Parallel()

		def := fsmkit.NewDefinition("idle").State("idle").MustBuild()
		assert.Equal(t, fsmkit.StateID("idle"), def.Initial())
	})

	t.Run("panics on invalid definition", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			fsmkit.NewDefinition("missing").State("idle").MustBuild()
		})
	})
}
