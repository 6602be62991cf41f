package chat_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	model "github.com/zhouzirui/healthdesk/internal/model/chat"
	chat "github.com/zhouzirui/healthdesk/internal/service/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type exchangeFunc func(ctx context.Context, req model.Request) (model.Response, error)

type fakeTransport struct {
	mu       sync.Mutex
	requests []model.Request
	respond  exchangeFunc
	started  chan model.Request
}

func (f *fakeTransport) Exchange(ctx context.Context, req model.Request) (model.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- req
	}
	if respond == nil {
		return model.Response{Response: "reply to " + req.Message}, nil
	}
	return respond(ctx, req)
}

func (f *fakeTransport) Requests() []model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Request(nil), f.requests...)
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// gatedTransport holds every exchange until release is closed or sent to.
func gatedTransport(release <-chan struct{}, honourCtx bool) *fakeTransport {
	return &fakeTransport{
		started: make(chan model.Request, 8),
		respond: func(ctx context.Context, req model.Request) (model.Response, error) {
			if honourCtx {
				select {
				case <-release:
				case <-ctx.Done():
					return model.Response{}, ctx.Err()
				}
			} else {
				<-release
			}
			return model.Response{Response: "reply to " + req.Message}, nil
		},
	}
}

type recordingRenderer struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingRenderer) record(format string, args ...any) {
	r.mu.Lock()
	r.ops = append(r.ops, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recordingRenderer) SetOpen(open bool) { r.record("open=%t", open) }
func (r *recordingRenderer) RenderMessage(m model.Message) { r.record("%s:%s", m.Sender, m.Text) }
func (r *recordingRenderer) ShowTyping(turn uint64) { r.record("typing#%d", turn) }
func (r *recordingRenderer) HideTyping(turn uint64) { r.record("typing_done#%d", turn) }
func (r *recordingRenderer) ShowError(text string) { r.record("error:%s", text) }
func (r *recordingRenderer) HideError() { r.record("error_done") }
func (r *recordingRenderer) ClearTranscript() { r.record("clear") }

func (r *recordingRenderer) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func (r *recordingRenderer) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}

// displayed replays renderer ops the way a widget applies them and returns the
// rows left on screen, typing placeholders excluded.
func displayed(ops []string) []string {
	var rows []string
	for _, op := range ops {
		switch {
		case op == "clear":
			rows = nil
		case op == "error_done":
			for i, row := range rows {
				if strings.HasPrefix(row, "error:") {
					rows = append(rows[:i], rows[i+1:]...)
					break
				}
			}
		case strings.HasPrefix(op, "open="), strings.HasPrefix(op, "typing"):
		default:
			rows = append(rows, op)
		}
	}
	return rows
}

// transcriptRows renders Transcript in the same notation, typing excluded.
func transcriptRows(entries []chat.Entry) []string {
	var rows []string
	for _, entry := range entries {
		switch entry.Kind {
		case chat.EntryHistory:
			rows = append(rows, fmt.Sprintf("%s:%s", entry.Message.Sender, entry.Message.Text))
		case chat.EntryError:
			rows = append(rows, "error:"+entry.Message.Text)
		}
	}
	return rows
}
