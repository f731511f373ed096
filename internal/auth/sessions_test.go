package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestSessionsNotifySubscribersInOrder(t *testing.T) {
	ctx := context.Background()
	s := NewSessions(newIdentity())

	var got []string
	unsubA := s.Subscribe(func(e Event) { got = append(got, "a:"+e.Kind.String()) })
	s.Subscribe(func(e Event) { got = append(got, "b:"+e.Kind.String()) })

	sess, err := s.SignUp(ctx, "carol@example.com", "password123")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SignOut(ctx, sess.Token); err != nil {
		t.Fatal(err)
	}

	want := []string{"a:signed_in", "b:signed_in", "a:signed_out", "b:signed_out"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	got = nil
	unsubA()
	unsubA()
	if _, err := s.SignIn(ctx, "carol@example.com", "password123"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"b:signed_in"}) {
		t.Fatalf("after unsubscribe events = %v", got)
	}
}

func TestSessionsNoEventOnFailure(t *testing.T) {
	ctx := context.Background()
	s := NewSessions(newIdentity())
	calls := 0
	s.Subscribe(func(Event) { calls++ })

	if _, err := s.SignIn(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.SignOut(ctx, "not-a-token"); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("expected no events, got %d", calls)
	}
}

func TestSessionsSignOutCarriesUser(t *testing.T) {
	ctx := context.Background()
	s := NewSessions(newIdentity())
	sess, err := s.SignUp(ctx, "dave@example.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	var out Event
	s.Subscribe(func(e Event) { out = e })
	if err := s.SignOut(ctx, sess.Token); err != nil {
		t.Fatal(err)
	}
	if out.Kind != SignedOut || out.Session.UserID != sess.UserID {
		t.Fatalf("unexpected event %+v", out)
	}
	if _, err := s.Current(ctx, sess.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
