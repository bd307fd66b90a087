package models

// Role identifies who wrote a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mode selects one of the two persisted conversations.
type Mode string

const (
	ModeCoach   Mode = "coach"
	ModeGeneral Mode = "general"
)

const (
	CoachGreeting   = "Hello! I am Omny AI. Ready to build your plan?"
	GeneralGreeting = "Ask me anything about training, diet, or sleep."
)

// Message is one transcript entry. Messages have no identity of their own.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcripts holds both conversations as stored in chat_history.json.
type Transcripts struct {
	Coach   []Message `json:"coach_messages"`
	General []Message `json:"general_messages"`
}

// NewTranscripts returns fresh conversations seeded with the assistant greetings.
func NewTranscripts() Transcripts {
	return Transcripts{
		Coach:   []Message{{Role: RoleAssistant, Content: CoachGreeting}},
		General: []Message{{Role: RoleAssistant, Content: GeneralGreeting}},
	}
}

// Messages returns the conversation for mode. Unknown modes yield nil.
func (t *Transcripts) Messages(mode Mode) []Message {
	switch mode {
	case ModeCoach:
		return t.Coach
	case ModeGeneral:
		return t.General
	}
	return nil
}

// Append adds a message to the conversation for mode.
func (t *Transcripts) Append(mode Mode, role Role, content string) {
	msg := Message{Role: role, Content: content}
	switch mode {
	case ModeCoach:
		t.Coach = append(t.Coach, msg)
	case ModeGeneral:
		t.General = append(t.General, msg)
	}
}

// Clone returns a deep copy safe to hand to callers outside a lock.
func (t Transcripts) Clone() Transcripts {
	return Transcripts{
		Coach:   append([]Message(nil), t.Coach...),
		General: append([]Message(nil), t.General...),
	}
}
