package aps

import (
	"encoding/json"
	"strings"
)

// Manifest is the provider's status document for a translation job.
type Manifest struct {
	Type        string               `json:"type"`
	URN         string               `json:"urn"`
	Status      string               `json:"status"`
	Progress    string               `json:"progress"`
	Region      string               `json:"region"`
	Derivatives []ManifestDerivative `json:"derivatives"`
}

// ManifestDerivative is a top-level output of a translation job.
type ManifestDerivative struct {
	Name       string         `json:"name"`
	OutputType string         `json:"outputType"`
	Status     string         `json:"status"`
	Progress   string         `json:"progress"`
	Messages   []Message      `json:"messages"`
	Children   []ManifestNode `json:"children"`
}

// ManifestNode is a nested entry in the derivative tree.
type ManifestNode struct {
	GUID       string         `json:"guid"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Name       string         `json:"name"`
	ViewableID string         `json:"viewableID"`
	Mime       string         `json:"mime"`
	Status     string         `json:"status"`
	Messages   []Message      `json:"messages"`
	Children   []ManifestNode `json:"children"`
}

// Message is a structured diagnostic attached to a manifest entry.
type Message struct {
	Type string      `json:"type"`
	Text MessageText `json:"message"`
	Code string      `json:"code"`
}

// MessageText decodes a message body sent either as a string or as a list of strings.
type MessageText string

func (m *MessageText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MessageText(s)
		return nil
	}

	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*m = MessageText(strings.Join(parts, " "))
	return nil
}

// Diagnostics collects error and warning messages from every derivative and
// its descendants in manifest order.
func (m *Manifest) Diagnostics() []Message {
	var out []Message
	for _, d := range m.Derivatives {
		out = appendDiagnostics(out, d.Messages)
		for _, c := range d.Children {
			out = c.collect(out)
		}
	}
	return out
}

func (n *ManifestNode) collect(out []Message) []Message {
	out = appendDiagnostics(out, n.Messages)
	for _, c := range n.Children {
		out = c.collect(out)
	}
	return out
}

func appendDiagnostics(out, msgs []Message) []Message {
	for _, m := range msgs {
		switch strings.ToLower(m.Type) {
		case "error", "warning":
			out = append(out, m)
		}
	}
	return out
}
