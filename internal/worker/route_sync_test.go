package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finance/internal/amqp"
	"finance/internal/resolver"
)

type stubAdopter struct {
	got     []resolver.ResolvedRoute
	changed bool
	err     error
}

func (s *stubAdopter) Adopt(_ context.Context, route resolver.ResolvedRoute) (bool, error) {
	s.got = append(s.got, route)
	return s.changed, s.err
}

func TestHandleRouteResolvedAdoptsMessage(t *testing.T) {
	stub := &stubAdopter{changed: true}
	w := NewRouteSyncWorker(stub, nil)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := w.HandleRouteResolved(context.Background(), &amqp.RouteResolvedMessage{
		Key:       "accounts",
		Path:      "/accounts",
		BaseURL:   "https://api.example.test",
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("HandleRouteResolved() error = %v", err)
	}
	if len(stub.got) != 1 {
		t.Fatalf("Adopt called %d times, want 1", len(stub.got))
	}
	got := stub.got[0]
	if got.Key != resolver.Accounts || got.Path != "/accounts" || !got.ResolvedAt.Equal(ts) {
		t.Errorf("adopted %+v", got)
	}
}

func TestHandleRouteResolvedDropsForeignRoutes(t *testing.T) {
	for _, sentinel := range []error{resolver.ErrForeignRoute, resolver.ErrUnknownRouteKey} {
		stub := &stubAdopter{err: sentinel}
		w := NewRouteSyncWorker(stub, nil)
		if err := w.HandleRouteResolved(context.Background(), &amqp.RouteResolvedMessage{Key: "accounts"}); err != nil {
			t.Errorf("%v: HandleRouteResolved() error = %v, want nil so the message is acked", sentinel, err)
		}
	}
}

func TestHandleRouteResolvedReturnsOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	w := NewRouteSyncWorker(&stubAdopter{err: boom}, nil)
	if err := w.HandleRouteResolved(context.Background(), &amqp.RouteResolvedMessage{Key: "accounts"}); !errors.Is(err, boom) {
		t.Errorf("HandleRouteResolved() error = %v, want %v", err, boom)
	}
}

func TestHandleRouteResolvedAgainstResolver(t *testing.T) {
	res, err := resolver.New(resolver.Config{BaseURL: "https://api.example.test"},
		resolver.WithProber(resolver.ProberFunc(func(context.Context, string) (bool, error) {
			t.Error("adopted route should not be probed")
			return false, nil
		})))
	if err != nil {
		t.Fatal(err)
	}
	w := NewRouteSyncWorker(res, nil)

	msg := amqp.NewRouteResolvedMessage(resolver.ResolvedRoute{
		Key:     resolver.Plans,
		Path:    "/plans",
		BaseURL: "https://api.example.test",
	})
	if err := w.HandleRouteResolved(context.Background(), msg); err != nil {
		t.Fatalf("HandleRouteResolved() error = %v", err)
	}

	path, err := res.Resolve(context.Background(), resolver.Plans)
	if err != nil {
		t.Fatal(err)
	}
	if path != "/plans" {
		t.Errorf("Resolve() = %q, want /plans", path)
	}
}

func TestHandleRouteResolvedHonoursCancellation(t *testing.T) {
	stub := &stubAdopter{}
	w := NewRouteSyncWorker(stub, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.HandleRouteResolved(ctx, &amqp.RouteResolvedMessage{Key: "accounts"}); !errors.Is(err, context.Canceled) {
		t.Errorf("HandleRouteResolved() error = %v, want context.Canceled", err)
	}
	if len(stub.got) != 0 {
		t.Error("Adopt should not run after cancellation")
	}
}
