package intent

import "strings"

// Intent is the coarse category the classifier maps an utterance to.
type Intent string

const (
	Greeting Intent = "greeting"
	Command  Intent = "command"
	Question Intent = "question"
	Unknown  Intent = "unknown"
)

// Verbosity hints how long the generated response should be.
type Verbosity string

const (
	Brief    Verbosity = "brief"
	Normal   Verbosity = "normal"
	Detailed Verbosity = "detailed"
)

var greetings = []string{
	"hello", "hi ", "hi,", "hey", "good morning", "good afternoon", "good evening", "greetings",
}

var questionStarts = []string{
	"who", "what", "when", "where", "why", "how", "which",
	"is ", "are ", "am ", "was ", "were ", "do ", "does ", "did ",
	"can ", "could ", "would ", "will ", "should ", "shall ",
}

var commandStarts = []string{
	"turn ", "set ", "play ", "open ", "close ", "start ", "stop ",
	"pause ", "resume ", "remind ", "search ", "find ", "call ",
	"send ", "read ", "write ", "show ", "tell ", "give ", "make ",
	"switch ", "mute ", "unmute ", "volume ", "skip ",
}

var briefMarkers = []string{"briefly", "in short", "short answer", "quickly", "one sentence", "tl;dr"}

var detailMarkers = []string{"in detail", "in depth", "elaborate", "explain thoroughly", "step by step", "full explanation"}

// Classify maps an utterance to an intent category and a verbosity hint.
// Pure and deterministic; no state.
func Classify(utterance string) (Intent, Verbosity) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	verbosity := Normal
	for _, m := range briefMarkers {
		if strings.Contains(text, m) {
			verbosity = Brief
			break
		}
	}
	if verbosity == Normal {
		for _, m := range detailMarkers {
			if strings.Contains(text, m) {
				verbosity = Detailed
				break
			}
		}
	}

	if text == "" {
		return Unknown, verbosity
	}
	padded := text + " "
	for _, g := range greetings {
		if strings.HasPrefix(padded, g) {
			return Greeting, verbosity
		}
	}
	if strings.Contains(text, "?") {
		return Question, verbosity
	}
	for _, q := range questionStarts {
		if strings.HasPrefix(padded, q) {
			return Question, verbosity
		}
	}
	for _, c := range commandStarts {
		if strings.HasPrefix(padded, c) {
			return Command, verbosity
		}
	}
	return Unknown, verbosity
}

// PromptFragment renders the generation instruction for the verbosity hint.
func (v Verbosity) PromptFragment() string {
	switch v {
	case Brief:
		return "Answer in one short sentence."
	case Detailed:
		return "Answer thoroughly, with relevant detail, in a few paragraphs at most."
	default:
		return "Answer in two or three sentences."
	}
}

// PromptFragment renders a steering hint for the intent category.
func (i Intent) PromptFragment() string {
	switch i {
	case Greeting:
		return "The user is greeting you; greet them back warmly."
	case Command:
		return "The user issued a command; acknowledge it and state what you did or cannot do."
	case Question:
		return "The user asked a question; answer it directly."
	default:
		return "The user's intent is unclear; respond helpfully and ask for clarification if needed."
	}
}
