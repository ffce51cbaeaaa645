package domain

// AssistantProfile describes the assistant that will run the generated script.
type AssistantProfile struct {
	Name             string   `json:"name"`
	Profession       string   `json:"profession,omitempty"`
	Company          string   `json:"company,omitempty"`
	Contacts         string   `json:"contacts,omitempty"`
	Guidelines       string   `json:"guidelines,omitempty"`
	Avatar           string   `json:"avatar,omitempty"`
	ScriptGuidelines []string `json:"scriptGuidelines,omitempty"`

	// UpdatedAt is a Unix timestamp in milliseconds, set by the profile store.
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// DefaultScriptGuidelines explain how a reader (human or model) should interpret a script.
var DefaultScriptGuidelines = []string{
	"Each card is a step of the conversation; follow the flow from the entry point.",
	"Read the card content as the message to convey, adapting the wording to the conversation.",
	"Outgoing intents list what the user may express; move to the target card of the intent that matches.",
	"When no intent matches, stay on the current card and ask a clarifying question.",
	"Specific fields hold facts (prices, addresses, schedules); never invent values that are not listed.",
	"A terminal node ends the flow; close the conversation politely.",
}

// DefaultProfile is used when no profile has been configured.
func DefaultProfile() AssistantProfile {
	return AssistantProfile{
		Name:       "Virtual Assistant",
		Profession: "Customer service assistant",
		Guidelines: "Be polite and objective.\nAnswer only with information present in the flow.\nKeep messages short.",
	}
}

// EffectiveScriptGuidelines returns the profile's interpretation rules or the defaults.
func (p AssistantProfile) EffectiveScriptGuidelines() []string {
	if len(p.ScriptGuidelines) > 0 {
		return p.ScriptGuidelines
	}
	return DefaultScriptGuidelines
}

// Clone returns a deep copy of the profile.
func (p AssistantProfile) Clone() AssistantProfile {
	out := p
	if p.ScriptGuidelines != nil {
		out.ScriptGuidelines = append([]string(nil), p.ScriptGuidelines...)
	}
	return out
}
