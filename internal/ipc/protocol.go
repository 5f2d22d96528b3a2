package ipc

// Request is one JSON-line command sent to the session owner.
type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// Field is the wire view of one template field.
type Field struct {
	Name       string   `json:"name"`
	Value      string   `json:"value,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Tier       string   `json:"tier,omitempty"`
	Provenance string   `json:"provenance,omitempty"`
}

// TemplateInfo describes one macro template.
type TemplateInfo struct {
	Key    string   `json:"key"`
	Fields []string `json:"fields"`
	Length int      `json:"length"`
}

// Response is the owner's reply, carrying the outcome and a document snapshot.
type Response struct {
	OK           bool          `json:"ok"`
	State        string        `json:"state,omitempty"`
	Message      string        `json:"message,omitempty"`
	Error        string        `json:"error,omitempty"`
	Code         string        `json:"code,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
	OutcomeID    string        `json:"outcome_id,omitempty"`
	Macro        string        `json:"macro,omitempty"`
	Document     string        `json:"document,omitempty"`
	Unfilled     []string      `json:"unfilled,omitempty"`
	Changed      []string      `json:"changed_fields,omitempty"`
	Fields       []Field       `json:"fields,omitempty"`
	Templates    []string      `json:"templates,omitempty"`
	Template     *TemplateInfo `json:"template,omitempty"`
	Revision     uint64        `json:"revision,omitempty"`
	PendingPaste bool          `json:"pending_paste,omitempty"`
	Extracting   bool          `json:"extracting,omitempty"`
}
