package llm

import "strings"

// Conversation roles understood by the API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one turn of a conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a piece of a turn. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Blob is inline file data; Data is base64-encoded on the wire.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// TextPart returns a text part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// BlobPart returns an inline data part.
func BlobPart(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{MimeType: mimeType, Data: data}}
}

// Schema is the OpenAPI subset used for function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// FunctionDeclaration describes a tool to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type toolDecl struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// SafetySetting sets the block threshold for one harm category.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// DefaultSafetySettings disables blocking for the four adjustable harm categories.
func DefaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	out := make([]SafetySetting, len(categories))
	for i, c := range categories {
		out[i] = SafetySetting{Category: c, Threshold: "BLOCK_NONE"}
	}
	return out
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []toolDecl        `json:"tools,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// Usage reports token counts, summed over function-calling rounds.
type Usage struct {
	PromptTokens    int `json:"promptTokenCount"`
	CandidateTokens int `json:"candidatesTokenCount"`
	TotalTokens     int `json:"totalTokenCount"`
}

func (u *Usage) add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.CandidateTokens += o.CandidateTokens
	u.TotalTokens += o.TotalTokens
}

type generateResponse struct {
	Candidates     []candidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata Usage `json:"usageMetadata"`
}

func (c *candidate) text() string {
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func (c *candidate) functionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Content.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

func blockedFinish(reason string) bool {
	switch reason {
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII", "RECITATION":
		return true
	}
	return false
}
