// Package blueprint loads declarative machine definitions from YAML or JSON
// documents and compiles them into runnable fsmkit definitions.
//
// A blueprint document describes a machine the way application code would
// with the fsmkit builder, but as data: states, transitions, guards, context
// updates, and entry/exit actions, referenced by name. Behavior stays in Go;
// a Registry maps the names used in documents to the guard, update, and
// action functions the compiled machine will call. The split keeps machine
// shape reviewable and editable without recompiling, while the callable
// surface remains explicit and typed.
//
// # Document Format
//
//	id: signup
//	initial: account
//	context:
//	  attempts: 0
//	states:
//	  account:
//	    exit: persistDraft
//	    on:
//	      NEXT:
//	        - target: profile
//	          guard: accountValid
//	          updates: [clearErrors]
//	        - target: account
//	          updates: [flagErrors]
//	      CANCEL: aborted
//	  profile:
//	    entry: [focusFirstField]
//	    on:
//	      BACK: account
//	  aborted: {}
//
// Transition lists are ordered: candidates for one event type are tried top
// to bottom at dispatch time and the first passing guard wins. A bare state
// id is shorthand for a single unguarded transition, and scalar entry, exit,
// and updates values are shorthand for one-element lists.
//
// # Usage
//
//	reg := blueprint.NewRegistry()
//	reg.MustRegisterGuard("accountValid", accountValid)
//	reg.MustRegisterUpdate("clearErrors", clearErrors)
//	reg.MustRegisterUpdate("flagErrors", flagErrors)
//	reg.MustRegisterAction("persistDraft", persistDraft)
//	reg.MustRegisterAction("focusFirstField", focusFirstField)
//
//	def, err := blueprint.LoadFile(ctx, "machines/signup.yaml", reg)
//	if err != nil {
//		return err
//	}
//	machine := fsmkit.MustNew(def)
//
// Documents can also come from an embedded filesystem via LoadFS, from any
// Source implementation, or be constructed in code and handed to Compile.
//
// # Error Handling
//
// Parse and load failures wrap package sentinels such as
// ErrFailedToParseYAML and ErrFailedToReadFile, so errors.Is distinguishes
// malformed content from missing files. Compile reports names missing from
// the registry through ErrUnknownGuard, ErrUnknownUpdate, and
// ErrUnknownAction, and structural problems surface as fsmkit's
// *ErrInvalidDefinition, exactly as if the definition had been built in
// code.
package blueprint
