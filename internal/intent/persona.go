package intent

import "fmt"

// Persona is a closed set of assistant voices. Each maps to a fixed
// system-prompt fragment; there is no user-defined persona table.
type Persona string

const (
	PersonaButler Persona = "butler"
	PersonaPirate Persona = "pirate"
	PersonaZen    Persona = "zen"
)

// ParsePersona validates a configured persona name.
func ParsePersona(s string) (Persona, error) {
	switch Persona(s) {
	case PersonaButler, PersonaPirate, PersonaZen:
		return Persona(s), nil
	case "":
		return PersonaButler, nil
	}
	return "", fmt.Errorf("unknown persona %q (valid: butler, pirate, zen)", s)
}

// PromptFragment renders the persona's system-prompt fragment.
func (p Persona) PromptFragment() string {
	switch p {
	case PersonaPirate:
		return "You are ARGO, a voice assistant who speaks like a good-natured pirate. Keep the accent light enough to stay intelligible."
	case PersonaZen:
		return "You are ARGO, a calm and measured voice assistant. Speak plainly and without hurry."
	default:
		return "You are ARGO, a capable and courteous voice assistant in the manner of a butler. Be helpful and precise."
	}
}
