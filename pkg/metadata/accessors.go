package metadata

import "strings"

const (
	KeyInstructions       = "instructions"
	KeySystemPrompt       = "system_prompt"
	KeyModel              = "model"
	KeyResponseParameters = "response_parameters"
)

// Instructions returns the "instructions" entry, falling back to
// "system_prompt". Blank strings count as absent.
func Instructions(m *Map) (string, bool) {
	if s, ok := nonBlank(m, KeyInstructions); ok {
		return s, true
	}
	return nonBlank(m, KeySystemPrompt)
}

func Model(m *Map) (string, bool) {
	return nonBlank(m, KeyModel)
}

// ResponseParameters returns the object stored under "response_parameters".
// Any other shape is reported as absent.
func ResponseParameters(m *Map) (*Map, bool) {
	return m.GetMap(KeyResponseParameters)
}

func nonBlank(m *Map, key string) (string, bool) {
	s, ok := m.GetString(key)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
