package transport

import (
	"context"
	"errors"
	"testing"

	xerrors "AOChat-Wallet/internal/errors"
)

type fakeMessenger struct {
	sendErr error
	editErr error
	sent    int
}

func (f *fakeMessenger) Send(_ context.Context, _, _ string, _ *SendOptions) (string, error) {
	f.sent++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "m1", nil
}

func (f *fakeMessenger) Edit(_ context.Context, _, _, _ string, _ *SendOptions) error {
	return f.editErr
}

func TestSafeSenderDelivers(t *testing.T) {
	fake := &fakeMessenger{}
	sender := NewSafeSender(fake)

	id, delivered, err := sender.Send(context.Background(), "c1", "hi", nil)
	if err != nil || !delivered || id != "m1" {
		t.Fatalf("unexpected result: id=%s delivered=%v err=%v", id, delivered, err)
	}
}

func TestSafeSenderSwallowsBlockedAndMissingChat(t *testing.T) {
	for _, transportErr := range []error{ErrBlocked, ErrChatNotFound} {
		fake := &fakeMessenger{sendErr: transportErr}
		sender := NewSafeSender(fake)

		_, delivered, err := sender.Send(context.Background(), "c1", "hi", nil)
		if err != nil {
			t.Fatalf("%v must be swallowed, got %v", transportErr, err)
		}
		if delivered {
			t.Fatalf("expected undelivered for %v", transportErr)
		}
	}
}

func TestSafeSenderPropagatesOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	fake := &fakeMessenger{sendErr: boom}
	sender := NewSafeSender(fake)

	_, delivered, err := sender.Send(context.Background(), "c1", "hi", nil)
	if !errors.Is(err, boom) || delivered {
		t.Fatalf("expected propagation, got delivered=%v err=%v", delivered, err)
	}
}

func TestSafeSenderEdit(t *testing.T) {
	fake := &fakeMessenger{editErr: xerrors.New(xerrors.CodeTransportChatNotFound, "")}
	sender := NewSafeSender(fake)

	delivered, err := sender.Edit(context.Background(), "c1", "m1", "updated", nil)
	if err != nil || delivered {
		t.Fatalf("expected swallowed edit failure, got delivered=%v err=%v", delivered, err)
	}
}
