package main

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

// recorderGateway captures outbound events per connection so tests can
// assert on what each player was told.
type recorderGateway struct {
	mu   sync.Mutex
	msgs map[ConnID][]any
}

func newRecorderGateway() *recorderGateway {
	return &recorderGateway{
		msgs: make(map[ConnID][]any),
	}
}

func (g *recorderGateway) Send(id ConnID, msg any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.msgs[id] = append(g.msgs[id], msg)
}

// eventType extracts the "type" discriminator every outbound message carries.
func eventType(msg any) string {
	return reflect.ValueOf(msg).FieldByName("Type").String()
}

func (g *recorderGateway) count(id ConnID, typ string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, msg := range g.msgs[id] {
		if eventType(msg) == typ {
			n++
		}
	}
	return n
}

func (g *recorderGateway) last(id ConnID, typ string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := len(g.msgs[id]) - 1; i >= 0; i-- {
		if eventType(g.msgs[id][i]) == typ {
			return g.msgs[id][i], true
		}
	}
	return nil, false
}

// waitFor polls until at least n events of typ were sent to id, failing the
// test after one second.
func (g *recorderGateway) waitFor(t *testing.T, id ConnID, typ string, n int) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if g.count(id, typ) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %q events for %s (got %d)", n, typ, id, g.count(id, typ))
}

func testContent(t *testing.T, questionCount int) *ContentStore {
	t.Helper()

	questions := make([]Question, questionCount)
	for i := range questions {
		questions[i] = Question{
			ID:               i + 1,
			Prompt:           fmt.Sprintf("Question %d?", i+1),
			DiscussionPrompt: fmt.Sprintf("Discuss question %d.", i+1),
		}
	}

	challenges := []Challenge{
		{Category: "conversation", Content: "Ask each other something new."},
		{Category: "active", Content: "Thumb war, best of three."},
	}

	content, err := newContentStore(questions, challenges)
	if err != nil {
		t.Fatalf("newContentStore: %v", err)
	}
	return content
}

func newTestRegistry(t *testing.T, questionCount int, delay time.Duration) (*Registry, *recorderGateway) {
	t.Helper()

	gw := newRecorderGateway()
	cfg := &Config{
		revealDelay: delay,
	}
	return newRegistry(cfg, testContent(t, questionCount), gw), gw
}

// pairedRoom creates a room with Alice (conn-1) and seats Bob (conn-2).
func pairedRoom(t *testing.T, reg *Registry) string {
	t.Helper()

	code, player := reg.CreateRoom("conn-1", "Alice")
	if player == nil {
		t.Fatal("CreateRoom returned no player")
	}
	if err := reg.JoinRoom(code, "conn-2", "Bob"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	return code
}
