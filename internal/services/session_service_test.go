package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"redline/internal/domain"
	"redline/internal/domain/session"
	"redline/internal/events"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
)

func createSession(t *testing.T, env *testEnv, in CreateSessionInput) (uuid.UUID, CreateSessionInput) {
	t.Helper()
	if in.Name == "" {
		in.Name = "design review"
	}
	if in.HostUserID == uuid.Nil {
		in.HostUserID = uuid.New()
	}
	if in.DocumentID == uuid.Nil {
		in.DocumentID = uuid.New()
	}
	sess, err := env.sessions.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess.ID, in
}

func TestCreateSessionDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host := uuid.New()
	sess, err := env.sessions.Create(ctx, CreateSessionInput{
		DocumentID: uuid.New(),
		HostUserID: host,
		Name:       "quarterly report review",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if sess.Type != domain.SessionTypeReview {
		t.Errorf("expected default type review, got %s", sess.Type)
	}
	if sess.MaxParticipants != 10 {
		t.Errorf("expected default max participants 10, got %d", sess.MaxParticipants)
	}
	if sess.Status != domain.SessionStatusScheduled {
		t.Errorf("expected status scheduled, got %s", sess.Status)
	}
	if len(sess.AccessCode) != 8 {
		t.Errorf("expected 8-char access code, got %q", sess.AccessCode)
	}
	for _, ch := range sess.AccessCode {
		if ch == '0' || ch == '1' || ch == 'O' || ch == 'I' || ch == 'L' {
			t.Errorf("access code contains ambiguous character %q", ch)
		}
	}
	if len(sess.Participants) != 1 {
		t.Fatalf("expected host participant, got %d", len(sess.Participants))
	}
	if sess.Participants[0].UserID != host || sess.Participants[0].Role != domain.ParticipantRoleHost {
		t.Errorf("host participant not created correctly: %+v", sess.Participants[0])
	}
	if got := env.outboxCount(t, events.EventTypeSessionCreated); got != 1 {
		t.Errorf("expected 1 session.created outbox event, got %d", got)
	}
}

func TestCreateSessionStartActive(t *testing.T) {
	env := newTestEnv(t)

	sess, err := env.sessions.Create(context.Background(), CreateSessionInput{
		DocumentID:  uuid.New(),
		HostUserID:  uuid.New(),
		Name:        "live walkthrough",
		StartActive: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.Status != domain.SessionStatusActive {
		t.Errorf("expected status active, got %s", sess.Status)
	}
	if !sess.StartedAt.Valid {
		t.Error("expected StartedAt to be set")
	}
}

func TestCreateSessionInvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateSessionInput
	}{
		{"blank name", CreateSessionInput{DocumentID: uuid.New(), HostUserID: uuid.New()}},
		{"bad type", CreateSessionInput{DocumentID: uuid.New(), HostUserID: uuid.New(), Name: "x", Type: "karaoke"}},
		{"too few participants", CreateSessionInput{DocumentID: uuid.New(), HostUserID: uuid.New(), Name: "x", MaxParticipants: 1}},
		{"over cap", CreateSessionInput{DocumentID: uuid.New(), HostUserID: uuid.New(), Name: "x", MaxParticipants: 51}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.sessions.Create(ctx, tc.in); !errors.Is(err, redline_errors.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestJoinPublicSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, _ := createSession(t, env, CreateSessionInput{IsPublic: true})
	user := uuid.New()

	p, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if p.Role != domain.ParticipantRoleParticipant {
		t.Errorf("expected role participant, got %s", p.Role)
	}
	if p.Status != domain.ParticipantStatusActive {
		t.Errorf("expected status active, got %s", p.Status)
	}

	// Joining twice is idempotent.
	p2, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user})
	if err != nil {
		t.Fatalf("second Join failed: %v", err)
	}
	if p2.ID != p.ID {
		t.Errorf("expected same participant on rejoin, got %s and %s", p.ID, p2.ID)
	}

	participants, err := env.sessions.GetParticipants(ctx, id)
	if err != nil {
		t.Fatalf("GetParticipants failed: %v", err)
	}
	if len(participants) != 2 {
		t.Errorf("expected 2 participants (host + joiner), got %d", len(participants))
	}
}

func TestJoinPrivateSessionAccessCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host := uuid.New()
	sess, err := env.sessions.Create(ctx, CreateSessionInput{
		DocumentID: uuid.New(),
		HostUserID: host,
		Name:       "private review",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: sess.ID, UserID: uuid.New(), AccessCode: "WRONG123"}); !errors.Is(err, redline_errors.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied for wrong code, got %v", err)
	}
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: sess.ID, UserID: uuid.New(), AccessCode: sess.AccessCode}); err != nil {
		t.Errorf("join with correct code failed: %v", err)
	}
}

func TestJoinIdempotentWithoutAccessCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host := uuid.New()
	sess, err := env.sessions.Create(ctx, CreateSessionInput{
		DocumentID: uuid.New(),
		HostUserID: host,
		Name:       "private review",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	user := uuid.New()
	p, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: sess.ID, UserID: user, AccessCode: sess.AccessCode})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	// A second join by the same user returns the existing participant
	// even when no code is supplied.
	again, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: sess.ID, UserID: user})
	if err != nil {
		t.Fatalf("repeat join failed: %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("repeat join returned a new participant")
	}

	// After leaving, the slot is gone and rejoining needs the code again.
	if err := env.sessions.Leave(ctx, sess.ID, user); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: sess.ID, UserID: user}); !errors.Is(err, redline_errors.ErrAccessDenied) {
		t.Errorf("rejoin without code: expected ErrAccessDenied, got %v", err)
	}
}

func TestJoinEndedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true, StartActive: true})
	if _, err := env.sessions.Transition(ctx, id, in.HostUserID, domain.SessionStatusEnded); err != nil {
		t.Fatalf("end session: %v", err)
	}

	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: uuid.New()}); !errors.Is(err, redline_errors.ErrSessionEnded) {
		t.Errorf("expected ErrSessionEnded, got %v", err)
	}
}

func TestJoinCapacityUnderContention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Host takes one slot, two join slots remain.
	id, _ := createSession(t, env, CreateSessionInput{IsPublic: true, MaxParticipants: 3})

	const contenders = 8
	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: uuid.New()})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var joined, full int
	for err := range results {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, redline_errors.ErrSessionFull):
			full++
		default:
			t.Errorf("unexpected join error: %v", err)
		}
	}
	if joined != 2 {
		t.Errorf("expected exactly 2 successful joins, got %d", joined)
	}
	if full != contenders-2 {
		t.Errorf("expected %d ErrSessionFull, got %d", contenders-2, full)
	}

	participants, _ := env.sessions.GetParticipants(ctx, id)
	if len(participants) != 3 {
		t.Errorf("expected 3 stored participants, got %d", len(participants))
	}
}

func TestRejoinAfterLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, _ := createSession(t, env, CreateSessionInput{IsPublic: true, MaxParticipants: 2})
	user := uuid.New()

	p, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := env.sessions.Leave(ctx, id, user); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	// The freed slot can be taken again by the same user.
	p2, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user})
	if err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
	if p2.ID != p.ID {
		t.Errorf("rejoin should reuse the participant record")
	}
	if p2.LeftAt.Valid {
		t.Error("rejoined participant still marked left")
	}
}

func TestLeaveFreesSlotForOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, _ := createSession(t, env, CreateSessionInput{IsPublic: true, MaxParticipants: 2})
	first := uuid.New()

	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: first}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: uuid.New()}); !errors.Is(err, redline_errors.ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
	if err := env.sessions.Leave(ctx, id, first); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: uuid.New()}); err != nil {
		t.Errorf("join after slot freed failed: %v", err)
	}
}

func TestHostLeaveDoesNotEndSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true, StartActive: true})
	if err := env.sessions.Leave(ctx, id, in.HostUserID); err != nil {
		t.Fatalf("host leave failed: %v", err)
	}

	sess, err := env.sessions.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if sess.Status != domain.SessionStatusActive {
		t.Errorf("session should stay active after host leaves, got %s", sess.Status)
	}
	if sess.HostUserID != in.HostUserID {
		t.Error("host must not change when the host leaves")
	}
}

func TestTransitionMatrix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		steps []domain.SessionStatus
		ok    bool
	}{
		{"scheduled to active", []domain.SessionStatus{domain.SessionStatusActive}, true},
		{"scheduled to paused", []domain.SessionStatus{domain.SessionStatusPaused}, false},
		{"scheduled to ended", []domain.SessionStatus{domain.SessionStatusEnded}, false},
		{"active to paused", []domain.SessionStatus{domain.SessionStatusActive, domain.SessionStatusPaused}, true},
		{"paused to active", []domain.SessionStatus{domain.SessionStatusActive, domain.SessionStatusPaused, domain.SessionStatusActive}, true},
		{"active to ended", []domain.SessionStatus{domain.SessionStatusActive, domain.SessionStatusEnded}, true},
		{"paused to ended", []domain.SessionStatus{domain.SessionStatusActive, domain.SessionStatusPaused, domain.SessionStatusEnded}, true},
		{"ended is terminal", []domain.SessionStatus{domain.SessionStatusActive, domain.SessionStatusEnded, domain.SessionStatusActive}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, in := createSession(t, env, CreateSessionInput{IsPublic: true})
			var err error
			for _, to := range tc.steps {
				_, err = env.sessions.Transition(ctx, id, in.HostUserID, to)
			}
			if tc.ok && err != nil {
				t.Errorf("expected transitions to succeed, got %v", err)
			}
			if !tc.ok && !errors.Is(err, redline_errors.ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestEndedSessionRejectsHostReactivation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true, StartActive: true})
	if _, err := env.sessions.Transition(ctx, id, in.HostUserID, domain.SessionStatusEnded); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	// Ending detaches every participant, the host included; the former
	// host must still see the state machine's verdict, not a
	// permission error.
	if _, err := env.sessions.Transition(ctx, id, in.HostUserID, domain.SessionStatusActive); !errors.Is(err, redline_errors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	sess, err := env.sessions.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if sess.Status != domain.SessionStatusEnded {
		t.Errorf("session status = %s, want ended", sess.Status)
	}
}

func TestTransitionRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true, StartActive: true})
	user := uuid.New()
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if _, err := env.sessions.Transition(ctx, id, user, domain.SessionStatusPaused); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("plain participant pausing: expected ErrForbidden, got %v", err)
	}
	if _, err := env.sessions.Transition(ctx, id, uuid.New(), domain.SessionStatusPaused); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("stranger pausing: expected ErrForbidden, got %v", err)
	}

	// Promoted to moderator, the same user may pause.
	if _, err := env.sessions.SetRole(ctx, id, in.HostUserID, user, domain.ParticipantRoleModerator); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if _, err := env.sessions.Transition(ctx, id, user, domain.SessionStatusPaused); err != nil {
		t.Errorf("moderator pausing failed: %v", err)
	}
}

func TestEndSessionCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true, StartActive: true})
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: uuid.New()}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	sess, err := env.sessions.Transition(ctx, id, in.HostUserID, domain.SessionStatusEnded)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if !sess.EndedAt.Valid {
		t.Error("expected EndedAt to be set")
	}

	participants, _ := env.sessions.GetParticipants(ctx, id)
	for _, p := range participants {
		if p.Status != domain.ParticipantStatusOffline {
			t.Errorf("participant %s should be offline after end, got %s", p.UserID, p.Status)
		}
	}
	if got := env.outboxCount(t, events.EventTypeSessionEnded); got != 1 {
		t.Errorf("expected 1 session.ended outbox event, got %d", got)
	}
}

func TestSetRoleHostImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true})
	user := uuid.New()
	if _, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if _, err := env.sessions.SetRole(ctx, id, in.HostUserID, in.HostUserID, domain.ParticipantRoleObserver); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("demoting host: expected ErrForbidden, got %v", err)
	}
	if _, err := env.sessions.SetRole(ctx, id, in.HostUserID, user, domain.ParticipantRoleHost); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("assigning host role: expected ErrForbidden, got %v", err)
	}
	if _, err := env.sessions.SetRole(ctx, id, in.HostUserID, user, "superuser"); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("unknown role: expected ErrForbidden, got %v", err)
	}
}

func TestApprovalFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{
		IsPublic: true,
		Settings: session.Settings{RequireApproval: true},
	})
	user := uuid.New()

	p, err := env.sessions.Join(ctx, JoinSessionInput{SessionID: id, UserID: user})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !p.PendingApproval {
		t.Fatal("expected joiner to await approval")
	}

	// Pending participants hold no capabilities.
	if _, err := env.comments.Add(ctx, AddCommentInput{
		DocumentID: in.DocumentID,
		SessionID:  id,
		AuthorID:   user,
		Content:    "first impressions",
	}); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("pending participant commenting: expected ErrForbidden, got %v", err)
	}

	// Nor can they approve themselves.
	if _, err := env.sessions.Approve(ctx, id, user, user); !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("self approval: expected ErrForbidden, got %v", err)
	}

	approved, err := env.sessions.Approve(ctx, id, in.HostUserID, user)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.PendingApproval {
		t.Error("participant still pending after approval")
	}

	if _, err := env.comments.Add(ctx, AddCommentInput{
		DocumentID: in.DocumentID,
		SessionID:  id,
		AuthorID:   user,
		Content:    "first impressions",
	}); err != nil {
		t.Errorf("approved participant commenting failed: %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, in := createSession(t, env, CreateSessionInput{IsPublic: true})

	if err := env.sessions.Heartbeat(ctx, id, in.HostUserID, domain.ParticipantStatusIdle); err != nil {
		t.Errorf("Heartbeat failed: %v", err)
	}
	if err := env.sessions.Heartbeat(ctx, id, in.HostUserID, "sleeping"); !errors.Is(err, redline_errors.ErrInvalidInput) {
		t.Errorf("invalid status: expected ErrInvalidInput, got %v", err)
	}
	if err := env.sessions.Heartbeat(ctx, id, in.HostUserID, domain.ParticipantStatusOffline); !errors.Is(err, redline_errors.ErrInvalidInput) {
		t.Errorf("offline heartbeat: expected ErrInvalidInput, got %v", err)
	}

	if err := env.sessions.SetOffline(ctx, id, in.HostUserID); err != nil {
		t.Errorf("SetOffline failed: %v", err)
	}
	participants, _ := env.sessions.GetParticipants(ctx, id)
	if participants[0].Status != domain.ParticipantStatusOffline {
		t.Errorf("expected offline after SetOffline, got %s", participants[0].Status)
	}
}

func TestOneActiveSessionPerDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := uuid.New()
	_, first := createSession(t, env, CreateSessionInput{DocumentID: doc, IsPublic: true, StartActive: true})

	// A second active session on the same document is rejected at create.
	if _, err := env.sessions.Create(ctx, CreateSessionInput{
		DocumentID:  doc,
		HostUserID:  uuid.New(),
		Name:        "competing walkthrough",
		StartActive: true,
	}); !errors.Is(err, redline_errors.ErrInvalidConfig) {
		t.Errorf("second active create: expected ErrInvalidConfig, got %v", err)
	}

	// Scheduling one is fine, activating it while the first runs is not.
	secondID, second := createSession(t, env, CreateSessionInput{DocumentID: doc, IsPublic: true})
	if _, err := env.sessions.Transition(ctx, secondID, second.HostUserID, domain.SessionStatusActive); !errors.Is(err, redline_errors.ErrInvalidTransition) {
		t.Errorf("activating second session: expected ErrInvalidTransition, got %v", err)
	}

	// Once the first ends, the second may go active.
	sessions, err := env.sessions.ListByDocument(ctx, doc)
	if err != nil {
		t.Fatalf("ListByDocument failed: %v", err)
	}
	for _, s := range sessions {
		if s.Status == domain.SessionStatusActive {
			if _, err := env.sessions.Transition(ctx, s.ID, first.HostUserID, domain.SessionStatusEnded); err != nil {
				t.Fatalf("ending first session: %v", err)
			}
		}
	}
	if _, err := env.sessions.Transition(ctx, secondID, second.HostUserID, domain.SessionStatusActive); err != nil {
		t.Errorf("activating after first ended failed: %v", err)
	}
}

func TestAccessCodesUniqueAmongLiveSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sess, err := env.sessions.Create(ctx, CreateSessionInput{
			DocumentID: uuid.New(),
			HostUserID: uuid.New(),
			Name:       "room",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[sess.AccessCode] {
			t.Fatalf("duplicate access code %q among live sessions", sess.AccessCode)
		}
		seen[sess.AccessCode] = true
	}
}
