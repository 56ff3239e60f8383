// Package form provides an edit/validate/submit form lifecycle machine.
//
// The form starts pristine. CHANGE events carry partial field values that
// merge into the current ones and mark the form dirty. SUBMIT runs the
// configured Validator: a clean result moves the form to submitting, a
// failed one stays in editing with the per-field messages recorded. The
// host performs the actual submission while the machine sits in submitting
// and reports back with RESOLVE or REJECT; async.Settle fits here. RESET
// returns to pristine with the initial values restored.
//
//	machine := form.New(
//	    form.WithValidator(func(values map[string]any) map[string]string {
//	        errs := map[string]string{}
//	        if values["email"] == "" {
//	            errs["email"] = "email is required"
//	        }
//	        return errs
//	    }),
//	)
//
//	machine.Send(fsmkit.Event{Type: form.EventChange, Payload: map[string]any{"email": "joe@example.com"}})
//	snap, _ := machine.Send(fsmkit.Event{Type: form.EventSubmit})
//	if snap.Matches(form.StateSubmitting) {
//	    // deliver the values, then send EventResolve or EventReject
//	}
//
// The Validator runs inside a guard and again when recording errors, so it
// must be pure. While the form is submitting, CHANGE and SUBMIT are no-ops;
// the values are frozen until the host reports an outcome.
package form
