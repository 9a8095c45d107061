package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"redline/internal/events"
	redline_errors "redline/pkg/errors"

	"github.com/google/uuid"
)

func sessionForVersions(t *testing.T, env *testEnv) (sessionID, documentID, hostID uuid.UUID) {
	t.Helper()
	id, in := createSession(t, env, CreateSessionInput{IsPublic: true, StartActive: true})
	return id, in.DocumentID, in.HostUserID
}

func TestCreateVersionAssignsSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	for i := 1; i <= 3; i++ {
		v, err := env.versions.Create(ctx, CreateVersionInput{
			DocumentID: documentID,
			SessionID:  sessionID,
			ActorID:    hostID,
			Content:    []byte(fmt.Sprintf("draft %d\n", i)),
		})
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		if v.VersionNumber != i {
			t.Errorf("expected version number %d, got %d", i, v.VersionNumber)
		}
	}

	latest, err := env.versions.Latest(ctx, documentID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.VersionNumber != 3 {
		t.Errorf("expected latest 3, got %d", latest.VersionNumber)
	}
}

func TestCreateVersionConcurrentGapFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.versions.Create(ctx, CreateVersionInput{
				DocumentID: documentID,
				SessionID:  sessionID,
				ActorID:    hostID,
				Content:    []byte(fmt.Sprintf("concurrent save %d\n", i)),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Create failed: %v", err)
		}
	}

	versions, err := env.versions.ListByDocument(ctx, documentID)
	if err != nil {
		t.Fatalf("ListByDocument failed: %v", err)
	}
	if len(versions) != writers {
		t.Fatalf("expected %d versions, got %d", writers, len(versions))
	}
	seen := make(map[int]bool)
	for _, v := range versions {
		seen[v.VersionNumber] = true
	}
	for n := 1; n <= writers; n++ {
		if !seen[n] {
			t.Errorf("version number %d missing; numbering must be gap-free", n)
		}
	}
}

func TestCreateVersionFirstIsAllAdditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	v, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID,
		SessionID:  sessionID,
		ActorID:    hostID,
		Content:    []byte("line one\nline two\nline three\n"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.Changes.Additions != 3 || v.Changes.Deletions != 0 || v.Changes.Modifications != 0 {
		t.Errorf("expected 3/0/0 changes for first version, got %d/%d/%d",
			v.Changes.Additions, v.Changes.Deletions, v.Changes.Modifications)
	}
}

func TestCreateVersionRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, _ := sessionForVersions(t, env)

	_, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID,
		SessionID:  sessionID,
		ActorID:    uuid.New(),
		Content:    []byte("drive-by edit"),
	})
	if !errors.Is(err, redline_errors.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestRestoreAppendsNewVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	original := []byte("the original text\n")
	v1, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID, SessionID: sessionID, ActorID: hostID, Content: original,
	})
	if err != nil {
		t.Fatalf("Create v1 failed: %v", err)
	}
	if _, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID, SessionID: sessionID, ActorID: hostID, Content: []byte("heavily edited text\n"),
	}); err != nil {
		t.Fatalf("Create v2 failed: %v", err)
	}

	restored, err := env.versions.Restore(ctx, documentID, sessionID, hostID, v1.ID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.VersionNumber != 3 {
		t.Errorf("restore must append, expected version 3, got %d", restored.VersionNumber)
	}
	if restored.Checksum != v1.Checksum {
		t.Error("restored version content must match the target")
	}
	if restored.Description != "Restored from version 1" {
		t.Errorf("unexpected description %q", restored.Description)
	}

	// The target version is untouched.
	kept, _, err := env.versions.Download(ctx, v1.ID)
	if err != nil {
		t.Fatalf("Download v1 failed: %v", err)
	}
	if kept.VersionNumber != 1 {
		t.Error("target version mutated by restore")
	}

	if got := env.outboxCount(t, events.EventTypeVersionRestored); got != 1 {
		t.Errorf("expected 1 version.restored outbox event, got %d", got)
	}
}

func TestRestoreRejectsForeignVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)
	otherSession, otherDoc, otherHost := sessionForVersions(t, env)

	foreign, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: otherDoc, SessionID: otherSession, ActorID: otherHost, Content: []byte("other doc\n"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := env.versions.Restore(ctx, documentID, sessionID, hostID, foreign.ID); !errors.Is(err, redline_errors.ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	v1, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID, SessionID: sessionID, ActorID: hostID,
		Content: []byte("alpha\nbeta\n"),
	})
	if err != nil {
		t.Fatalf("Create v1 failed: %v", err)
	}
	v2, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID, SessionID: sessionID, ActorID: hostID,
		Content: []byte("alpha\nbeta\ngamma\ndelta\n"),
	})
	if err != nil {
		t.Fatalf("Create v2 failed: %v", err)
	}

	forward, err := env.versions.Compare(ctx, v1.ID, v2.ID)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if forward.Additions != 2 || forward.Deletions != 0 {
		t.Errorf("forward compare: expected +2/-0, got +%d/-%d", forward.Additions, forward.Deletions)
	}

	backward, err := env.versions.Compare(ctx, v2.ID, v1.ID)
	if err != nil {
		t.Fatalf("reverse Compare failed: %v", err)
	}
	if backward.Additions != 0 || backward.Deletions != 2 {
		t.Errorf("reverse compare: expected +0/-2, got +%d/-%d", backward.Additions, backward.Deletions)
	}
}

func TestCompareCrossDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionA, docA, hostA := sessionForVersions(t, env)
	sessionB, docB, hostB := sessionForVersions(t, env)

	va, err := env.versions.Create(ctx, CreateVersionInput{DocumentID: docA, SessionID: sessionA, ActorID: hostA, Content: []byte("a\n")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	vb, err := env.versions.Create(ctx, CreateVersionInput{DocumentID: docB, SessionID: sessionB, ActorID: hostB, Content: []byte("b\n")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := env.versions.Compare(ctx, va.ID, vb.ID); !errors.Is(err, redline_errors.ErrCrossDocumentCompare) {
		t.Errorf("expected ErrCrossDocumentCompare, got %v", err)
	}
}

func TestDownloadRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	content := []byte("exact bytes in, exact bytes out\n")
	v, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID, SessionID: sessionID, ActorID: hostID, Content: content,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, data, err := env.versions.Download(ctx, v.ID)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("downloaded content differs from stored content")
	}
	if got.Checksum != v.Checksum {
		t.Error("checksum changed between create and download")
	}
}

func TestDownloadDetectsCorruption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID, documentID, hostID := sessionForVersions(t, env)

	v, err := env.versions.Create(ctx, CreateVersionInput{
		DocumentID: documentID, SessionID: sessionID, ActorID: hostID, Content: []byte("pristine\n"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Corrupt the stored object behind the service's back.
	if err := env.store.Put(ctx, v.ContentReference, []byte("tampered\n")); err != nil {
		t.Fatalf("corrupting store failed: %v", err)
	}

	if _, _, err := env.versions.Download(ctx, v.ID); !errors.Is(err, redline_errors.ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}
}

func TestLatestOnEmptyDocument(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.versions.Latest(context.Background(), uuid.New()); !errors.Is(err, redline_errors.ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}
