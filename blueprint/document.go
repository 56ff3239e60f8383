package blueprint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the parsed, format-independent form of a blueprint. It mirrors
// the declarative surface of the fsmkit builder: states keyed by id, ordered
// transition candidates per event type, and behavior referenced by name.
type Document struct {
	ID      string              `yaml:"id" json:"id"`
	Initial string              `yaml:"initial" json:"initial"`
	Context map[string]any      `yaml:"context,omitempty" json:"context,omitempty"`
	States  map[string]StateDoc `yaml:"states" json:"states"`
}

// StateDoc describes one state: its entry/exit action names and the
// transition candidates declared per event type.
type StateDoc struct {
	Entry NameList                  `yaml:"entry,omitempty" json:"entry,omitempty"`
	Exit  NameList                  `yaml:"exit,omitempty" json:"exit,omitempty"`
	On    map[string]TransitionList `yaml:"on,omitempty" json:"on,omitempty"`
}

// TransitionDoc describes one transition candidate. Guard and Updates are
// names resolved against a Registry at compile time.
type TransitionDoc struct {
	Target  string   `yaml:"target" json:"target"`
	Guard   string   `yaml:"guard,omitempty" json:"guard,omitempty"`
	Updates NameList `yaml:"updates,omitempty" json:"updates,omitempty"`
}

// TransitionList is the ordered candidate list for one event type. In a
// document it is either a sequence of transitions or, as shorthand, a bare
// state id meaning a single unguarded transition.
type TransitionList []TransitionDoc

// UnmarshalYAML accepts either a scalar target id or a sequence of
// transition mappings. Null values never reach this method; the decoder
// zeroes them, which reads as an empty candidate list.
func (l *TransitionList) UnmarshalYAML(value *yaml.Node) error {
	switch {
	case value.Kind == yaml.ScalarNode:
		var target string
		if err := value.Decode(&target); err != nil {
			return err
		}
		*l = TransitionList{{Target: target}}
		return nil
	case value.Kind == yaml.SequenceNode:
		var items []TransitionDoc
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = TransitionList(items)
		return nil
	default:
		return fmt.Errorf("line %d: transitions must be a target id or a list of transitions", value.Line)
	}
}

// UnmarshalJSON accepts either a string target id or an array of transition
// objects.
func (l *TransitionList) UnmarshalJSON(data []byte) error {
	switch firstByte(data) {
	case '"':
		var target string
		if err := json.Unmarshal(data, &target); err != nil {
			return err
		}
		*l = TransitionList{{Target: target}}
		return nil
	case '[':
		var items []TransitionDoc
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = TransitionList(items)
		return nil
	case 'n': // null
		*l = TransitionList{}
		return nil
	default:
		return fmt.Errorf("transitions must be a target id or a list of transitions")
	}
}

// NameList is an ordered list of registered names. In a document it is
// either a sequence or, as shorthand, a single bare name.
type NameList []string

// UnmarshalYAML accepts either a scalar name or a sequence of names.
func (n *NameList) UnmarshalYAML(value *yaml.Node) error {
	switch {
	case value.Kind == yaml.ScalarNode:
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		*n = NameList{name}
		return nil
	case value.Kind == yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*n = NameList(names)
		return nil
	default:
		return fmt.Errorf("line %d: expected a name or a list of names", value.Line)
	}
}

// UnmarshalJSON accepts either a string name or an array of names.
func (n *NameList) UnmarshalJSON(data []byte) error {
	switch firstByte(data) {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*n = NameList{name}
		return nil
	case '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*n = NameList(names)
		return nil
	case 'n': // null
		*n = nil
		return nil
	default:
		return fmt.Errorf("expected a name or a list of names")
	}
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
