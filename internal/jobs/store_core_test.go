package jobs

import (
	"context"
	"errors"
	"testing"
)

func TestWithBusyRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("constraint failed")
	err := withBusyRetry(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected one call returning boom, got %d calls, err %v", calls, err)
	}
}

func TestWithBusyRetrySucceeds(t *testing.T) {
	calls := 0
	err := withBusyRetry(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("unexpected result: %d calls, err %v", calls, err)
	}
}

func TestIsBusyIgnoresPlainErrors(t *testing.T) {
	if isBusy(errors.New("database is locked")) {
		t.Fatal("only sqlite error codes should count as busy")
	}
	if isBusy(nil) {
		t.Fatal("nil is not busy")
	}
}
