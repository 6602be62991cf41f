package chat

import (
	"context"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
)

// Renderer is the view adapter a Session drives. Implementations own
// presentation details such as scrolling to the newest entry and drawing the
// bot avatar.
type Renderer interface {
	SetOpen(open bool)
	RenderMessage(msg chat.Message)
	ShowTyping(turn uint64)
	HideTyping(turn uint64)
	ShowError(text string)
	HideError()
	ClearTranscript()
}

// Transport performs one request/response exchange with the assistant endpoint.
type Transport interface {
	Exchange(ctx context.Context, req chat.Request) (chat.Response, error)
}

// NopRenderer discards every render call.
type NopRenderer struct{}

func (NopRenderer) SetOpen(bool) {}
func (NopRenderer) RenderMessage(chat.Message) {}
func (NopRenderer) ShowTyping(uint64) {}
func (NopRenderer) HideTyping(uint64) {}
func (NopRenderer) ShowError(string) {}
func (NopRenderer) HideError() {}
func (NopRenderer) ClearTranscript() {}
