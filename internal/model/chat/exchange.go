package chat

// Request is the JSON body posted to the assistant endpoint on every turn.
type Request struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// Response is the JSON body returned by the assistant endpoint.
// A nil History means the endpoint did not send one back.
type Response struct {
	Response string    `json:"response"`
	History  []Message `json:"history,omitempty"`
}
