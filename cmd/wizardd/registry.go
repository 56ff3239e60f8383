package main

import (
	"maps"
	"strings"

	"github.com/dmitrymomot/fsmkit"
	"github.com/dmitrymomot/fsmkit/blueprint"
)

// keyError is the context key the flow reports validation problems under.
// Client-submitted answers are never allowed to write it.
const keyError = "error"

// newRegistry binds the behavior names the signup blueprint references.
func newRegistry() *blueprint.Registry {
	reg := blueprint.NewRegistry()

	reg.MustRegisterGuard("hasEmail", func(_ fsmkit.Context, evt fsmkit.Event) bool {
		email := answerField(evt, "email")
		return email != "" && strings.Contains(email, "@")
	})
	reg.MustRegisterGuard("hasName", requireAnswer("name"))
	reg.MustRegisterGuard("hasPlan", requireAnswer("plan"))

	reg.MustRegisterUpdate("saveAnswers", saveAnswers)
	reg.MustRegisterUpdate("clearError", func(fsmkit.Context, fsmkit.Event) fsmkit.Context {
		return fsmkit.Context{keyError: ""}
	})
	reg.MustRegisterUpdate("rejectStep", func(fsmkit.Context, fsmkit.Event) fsmkit.Context {
		return fsmkit.Context{keyError: "required fields are missing"}
	})

	return reg
}

func requireAnswer(field string) fsmkit.Guard {
	return func(_ fsmkit.Context, evt fsmkit.Event) bool {
		return answerField(evt, field) != ""
	}
}

func answerField(evt fsmkit.Event, field string) string {
	answers, ok := evt.Payload.(map[string]any)
	if !ok {
		return ""
	}
	value, _ := answers[field].(string)
	return strings.TrimSpace(value)
}

// saveAnswers merges the submitted answers into the context, minus the keys
// the flow itself maintains.
func saveAnswers(_ fsmkit.Context, evt fsmkit.Event) fsmkit.Context {
	answers, ok := evt.Payload.(map[string]any)
	if !ok || len(answers) == 0 {
		return nil
	}
	saved := maps.Clone(answers)
	delete(saved, keyError)
	if len(saved) == 0 {
		return nil
	}
	return fsmkit.Context(saved)
}
