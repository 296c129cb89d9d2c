package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chamberctl/internal/service"
)

type fakeBotAPI struct {
	mu      sync.Mutex
	offsets []string
	sent    []string
	chats   []string
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"chamber","username":"chamber_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			f.offsets = append(f.offsets, r.FormValue("offset"))
			_, _ = w.Write([]byte(`{"ok":true,"result":[
				{"update_id":5,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"/status"}},
				{"update_id":6,"edited_message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"x"}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			f.chats = append(f.chats, r.FormValue("chat_id"))
			f.sent = append(f.sent, r.FormValue("text"))
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":2,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestClient(t *testing.T) (*Client, *fakeBotAPI) {
	t.Helper()
	fake := &fakeBotAPI{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return New("TOKEN", srv.URL+"/bot%s/%s", time.Second), fake
}

func TestClient_PollMapsUpdates(t *testing.T) {
	c, fake := newTestClient(t)

	got, err := c.Poll(context.Background(), 4)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if got[0].ID != 5 || got[0].Channel != "42" || got[0].Text != "/status" {
		t.Fatalf("unexpected first update %+v", got[0])
	}
	if got[1].ID != 6 || got[1].Channel != "" {
		t.Fatalf("non-message update must carry no channel: %+v", got[1])
	}
	if fake.offsets[0] != "5" {
		t.Fatalf("expected offset 5, got %q", fake.offsets[0])
	}
}

func TestClient_Send(t *testing.T) {
	c, fake := newTestClient(t)
	if err := c.Send(context.Background(), "42", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0] != "hello" || fake.chats[0] != "42" {
		t.Fatalf("unexpected send %v %v", fake.chats, fake.sent)
	}
}

func TestClient_SendRejectsBadChannel(t *testing.T) {
	c, _ := newTestClient(t)
	if err := c.Send(context.Background(), "not-a-chat", "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestClient_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New("TOKEN", srv.URL+"/bot%s/%s", time.Second)
	_, err := c.Poll(context.Background(), 0)
	if !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}
