package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
)

type fakeMessenger struct {
	mu       sync.Mutex
	failFor  map[int64]bool
	nextID   int
	requests map[int64]string
	texts    map[int64][]string
	edits    map[platform.SentMessage]string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		failFor:  map[int64]bool{},
		requests: map[int64]string{},
		texts:    map[int64][]string{},
		edits:    map[platform.SentMessage]string{},
	}
}

func (m *fakeMessenger) SendRequest(_ context.Context, userID int64, text string) (platform.SentMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[userID] {
		return platform.SentMessage{}, errors.New("bot was blocked by the user")
	}
	m.nextID++
	m.requests[userID] = text
	return platform.SentMessage{ChatID: userID, MessageID: m.nextID}, nil
}

func (m *fakeMessenger) SendText(_ context.Context, userID int64, text string) (platform.SentMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[userID] {
		return platform.SentMessage{}, errors.New("bot was blocked by the user")
	}
	m.nextID++
	m.texts[userID] = append(m.texts[userID], text)
	return platform.SentMessage{ChatID: userID, MessageID: m.nextID}, nil
}

func (m *fakeMessenger) EditResolved(_ context.Context, msg platform.SentMessage, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits[msg] = text
	return nil
}

func testCase(now time.Time) model.Case {
	return model.Case{
		ID:            "case-1",
		EntityID:      42,
		EntityName:    "spam_bot",
		CommunityID:   -1001,
		CommunityName: "lobby",
		Permissions:   model.PermAdministrator | model.PermPinMessages,
		CreatedAt:     now,
		Deadline:      now.Add(10 * time.Second),
		Status:        enums.CaseStatusPending,
	}
}

func TestDispatchSkipsFailedDeliveries(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	messenger := newFakeMessenger()
	messenger.failFor[2] = true
	correlations := NewCorrelations(16, time.Minute)
	d := NewDispatcher(messenger, correlations, 0, nil)
	d.now = func() time.Time { return now }

	moderators := []model.Member{{ID: 1}, {ID: 2}, {ID: 3}}
	receipts := d.Dispatch(context.Background(), testCase(now), moderators)

	if len(receipts) != 2 || receipts[0].ModeratorID != 1 || receipts[1].ModeratorID != 3 {
		t.Fatalf("unexpected receipts: %+v", receipts)
	}
	for _, r := range receipts {
		entityID, ok := correlations.Lookup(platform.SentMessage{ChatID: r.ChatID, MessageID: r.MessageID})
		if !ok || entityID != 42 {
			t.Fatalf("expected correlation for receipt %+v", r)
		}
	}

	text := messenger.requests[1]
	for _, want := range []string{"spam_bot", "42", "lobby", "Dangerous permissions: administrator", "10 seconds remaining"} {
		if !strings.Contains(text, want) {
			t.Fatalf("request text missing %q:\n%s", want, text)
		}
	}
}

func TestDispatchWithNoDeliveriesReturnsEmpty(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.failFor[1] = true
	d := NewDispatcher(messenger, nil, 0, nil)

	receipts := d.Dispatch(context.Background(), testCase(time.Now()), []model.Member{{ID: 1}})
	if len(receipts) != 0 {
		t.Fatalf("expected no receipts, got %+v", receipts)
	}
}

func TestSettleForgetsAndEdits(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	messenger := newFakeMessenger()
	correlations := NewCorrelations(16, time.Minute)
	d := NewDispatcher(messenger, correlations, 0, nil)

	c := testCase(now)
	c.Receipts = d.Dispatch(context.Background(), c, []model.Member{{ID: 1}, {ID: 3}})
	if correlations.Len() != 2 {
		t.Fatalf("expected 2 correlations, got %d", correlations.Len())
	}

	d.Settle(context.Background(), c, enums.CaseStatusRejected, &model.Principal{ID: 1, Name: "mod"})

	if correlations.Len() != 0 {
		t.Fatalf("expected correlations cleared, got %d", correlations.Len())
	}
	if len(messenger.edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(messenger.edits))
	}
	for _, text := range messenger.edits {
		if !strings.Contains(text, "Rejected") || !strings.Contains(text, "mod") {
			t.Fatalf("unexpected edit text %q", text)
		}
	}
}

func TestAlertCountsDeliveries(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.failFor[2] = true
	d := NewDispatcher(messenger, nil, 0, nil)

	delivered := d.Alert(context.Background(), []model.Member{{ID: 1}, {ID: 2}, {ID: 3}}, "cannot kick")
	if delivered != 2 {
		t.Fatalf("expected 2 alerts delivered, got %d", delivered)
	}
	if got := messenger.texts[3]; len(got) != 1 || got[0] != "cannot kick" {
		t.Fatalf("unexpected alert texts: %v", got)
	}
}

func TestCorrelationsExpire(t *testing.T) {
	correlations := NewCorrelations(4, 20*time.Millisecond)
	msg := platform.SentMessage{ChatID: 1, MessageID: 1}
	correlations.Put(msg, 9)

	if _, ok := correlations.Lookup(msg); !ok {
		t.Fatal("expected fresh correlation")
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := correlations.Lookup(msg); ok {
		t.Fatal("expected correlation to expire")
	}
}
