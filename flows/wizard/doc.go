// Package wizard builds multi-step onboarding definitions: an ordered list
// of steps with per-step validation, linear NEXT/BACK navigation, and a
// CANCEL escape hatch from every step.
//
// Each step is a state. A NEXT event carrying a map[string]any payload must
// pass the step's Validate guard; the payload is then shallow-merged into
// the machine context and the wizard advances. A rejected NEXT stays on the
// step, bumps the retry counter, and records which step rejected it. NEXT on
// the final step completes the wizard. BACK returns to the previous step
// with all collected answers intact. CANCEL aborts from any step.
//
//	def := wizard.MustNewDefinition([]wizard.Step{
//	    {ID: "account", Validate: accountValid},
//	    {ID: "profile", Validate: profileValid},
//	    {ID: "confirm"},
//	})
//
//	machine := fsmkit.MustNew(def)
//	machine.Send(fsmkit.Event{
//	    Type:    wizard.EventNext,
//	    Payload: map[string]any{"email": "joe@example.com"},
//	})
//
// One definition serves any number of machines, so hosts typically build it
// once and create a machine per session. The context keys KeyRetries and
// KeyRejectedStep are maintained by the wizard and are stripped from
// incoming payloads.
package wizard
