package ai

// Wire types for the generateContent endpoint.

type generateRequest struct {
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// Role tags a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request is a provider-neutral completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	// JSON asks the model for an application/json body.
	JSON bool
}

func (r Request) wire() generateRequest {
	out := generateRequest{Contents: make([]content, 0, len(r.Messages))}
	for _, m := range r.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out.Contents = append(out.Contents, content{Role: role, Parts: []part{{Text: m.Text}}})
	}
	if r.System != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: r.System}}}
	}
	if r.Temperature != 0 || r.JSON {
		cfg := &generationConfig{Temperature: r.Temperature}
		if r.JSON {
			cfg.ResponseMIMEType = "application/json"
		}
		out.GenerationConfig = cfg
	}
	return out
}
