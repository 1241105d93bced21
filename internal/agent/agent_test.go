package agent

import (
	"context"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/noema-ai/noema/internal/board"
	"github.com/noema-ai/noema/internal/config"
	"github.com/noema-ai/noema/internal/llm"
	"github.com/noema-ai/noema/internal/store"
)

func testAgent(t *testing.T, mock *llm.MockClient) *Agent {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default().Agent
	cfg.WindowTurns = 4
	return New(cfg, db, mock, rand.New(rand.NewSource(13)))
}

func TestExtractSalient(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "plain reply", nil},
		{"one", "ok <salient>the sky is blue</salient> done", []string{"the sky is blue"}},
		{"two", "<salient>a</salient> and <salient>b</salient>", []string{"a", "b"}},
		{"multiline", "<salient>line one\nline two</salient>", []string{"line one\nline two"}},
		{"empty span", "<salient>  </salient>", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractSalient(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("extractSalient(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestProcessPostMarksSalientConscious(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{
		Content: "Noted. <salient>the sky is blue</salient>",
	}}
	a := testAgent(t, mock)

	reply, err := a.ProcessPost(context.Background(), board.Post{ID: "1", Body: "what color is the sky?"})
	if err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}
	if strings.Contains(reply, "<salient>") {
		t.Errorf("reply still contains salient tags: %q", reply)
	}

	sys := a.eng.System()
	if len(sys.Conscious.Neighborhoods) != 1 {
		t.Fatalf("conscious neighborhoods = %d, want 1", len(sys.Conscious.Neighborhoods))
	}
	var words []string
	for _, o := range sys.Conscious.Neighborhoods[0].Occurrences {
		words = append(words, o.Word)
		if o.ActivationCount != 1 {
			t.Errorf("conscious %q count = %d, want 1", o.Word, o.ActivationCount)
		}
	}
	want := []string{"the", "sky", "is", "blue"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("conscious words = %v, want %v", words, want)
	}

	// The exchange itself landed as an ordinary episode.
	if len(sys.Episodes) != 1 {
		t.Errorf("ordinary episodes = %d, want 1", len(sys.Episodes))
	}
}

func TestProcessPostSnapshotsAndRecords(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "hello"}}
	a := testAgent(t, mock)

	if _, err := a.ProcessPost(context.Background(), board.Post{ID: "p1", Body: "hi there"}); err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}

	count, err := a.db.SnapshotCount()
	if err != nil {
		t.Fatalf("SnapshotCount: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshots = %d, want 1", count)
	}

	seen, err := a.db.SeenInteraction("p1")
	if err != nil {
		t.Fatalf("SeenInteraction: %v", err)
	}
	if !seen {
		t.Error("interaction not recorded")
	}
}

func TestHandlerSkipsSeenPosts(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "hello"}}
	a := testAgent(t, mock)
	handler := a.Handler()

	if _, err := handler(context.Background(), board.Post{ID: "p1", Body: "first"}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	calls := len(mock.Systems)

	if _, err := handler(context.Background(), board.Post{ID: "p1", Body: "first again"}); err != nil {
		t.Fatalf("handler repeat: %v", err)
	}
	if len(mock.Systems) != calls {
		t.Error("seen post was reprocessed")
	}
}

func TestWindowBounded(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "ok"}}
	a := testAgent(t, mock)

	posts := []string{"one", "two", "three", "four", "five"}
	for i, body := range posts {
		post := board.Post{ID: string(rune('a' + i)), Body: body}
		if _, err := a.ProcessPost(context.Background(), post); err != nil {
			t.Fatalf("ProcessPost %d: %v", i, err)
		}
	}

	// Window is the bounded buffer plus the current query.
	last := mock.Windows[len(mock.Windows)-1]
	if len(last) != a.cfg.WindowTurns+1 {
		t.Errorf("window = %d messages, want %d", len(last), a.cfg.WindowTurns+1)
	}
	// Full history keeps growing regardless.
	if len(a.history) != 2*len(posts) {
		t.Errorf("history = %d turns, want %d", len(a.history), 2*len(posts))
	}
}

func TestLoadRestoresState(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "<salient>remember me</salient> sure"}}

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default().Agent
	first := New(cfg, db, mock, rand.New(rand.NewSource(1)))
	if _, err := first.ProcessPost(context.Background(), board.Post{ID: "x", Body: "hello world"}); err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}
	wantN := first.eng.System().N()

	second, err := Load(cfg, db, mock, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := second.eng.System().N(); got != wantN {
		t.Errorf("restored N = %d, want %d", got, wantN)
	}
	if len(second.history) != 2 {
		t.Errorf("restored history = %d turns, want 2", len(second.history))
	}
}
