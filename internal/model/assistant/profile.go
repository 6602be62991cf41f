package assistant

import "strings"

// DefaultProfileID is the profile served when a widget does not ask for one.
const DefaultProfileID = "health-assistant"

// Profile holds the fixed copy and assets of an assistant widget.
type Profile struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Greeting     string   `json:"greeting" yaml:"greeting"`
	ErrorText    string   `json:"errorText" yaml:"errorText"`
	Avatar       string   `json:"avatar" yaml:"avatar"`
	ResetPhrase  string   `json:"resetPhrase" yaml:"resetPhrase"`
	QuickReplies []string `json:"quickReplies,omitempty" yaml:"quickReplies"`
}

// WantsReset reports whether the user text asks for a fresh assessment.
func (p Profile) WantsReset(text string) bool {
	if p.ResetPhrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(p.ResetPhrase))
}

// Merge overlays the non-empty fields of override onto p.
func (p Profile) Merge(override Profile) Profile {
	if override.Name != "" {
		p.Name = override.Name
	}
	if override.Greeting != "" {
		p.Greeting = override.Greeting
	}
	if override.ErrorText != "" {
		p.ErrorText = override.ErrorText
	}
	if override.Avatar != "" {
		p.Avatar = override.Avatar
	}
	if override.ResetPhrase != "" {
		p.ResetPhrase = override.ResetPhrase
	}
	if len(override.QuickReplies) > 0 {
		p.QuickReplies = append([]string(nil), override.QuickReplies...)
	}
	return p
}

// Seed provides the assistant profiles shipped with the site.
func Seed() []Profile {
	return []Profile{
		{
			ID:          DefaultProfileID,
			Name:        "AI Health Assistant",
			Greeting:    "👋 Hello! I'm your AI Health Assistant. Please describe your health concern.",
			ErrorText:   "⚠️ Error connecting to the assistant.",
			Avatar:      "healthbot-logo.png",
			ResetPhrase: "start new assessment",
			QuickReplies: []string{
				"I have a fever",
				"I have a headache",
				"Find a clinic near me",
				"Start new assessment",
			},
		},
		{
			ID:          "meal-planner",
			Name:        "Meal Planning Assistant",
			Greeting:    "👋 Hi! Tell me about your diet goals and I'll help you plan your meals.",
			ErrorText:   "⚠️ Error connecting to the assistant.",
			Avatar:      "healthbot-logo.png",
			ResetPhrase: "start new assessment",
		},
	}
}
