package asyncresult

import (
	"errors"
	"testing"
)

func TestCompleteThenGet(t *testing.T) {
	r := New[int]()
	if r.IsDone() {
		t.Fatalf("expected a fresh Result to be not done")
	}
	r.Complete(42)
	if !r.IsDone() {
		t.Fatalf("expected Result to be done after Complete")
	}
	v, err := r.Get()
	if err != nil || v != 42 {
		t.Fatalf("expected (42, nil), got (%v, %v)", v, err)
	}
}

func TestFailThenGet(t *testing.T) {
	r := New[string]()
	sentinel := errors.New("boom")
	r.Fail(sentinel)
	v, err := r.Get()
	if !errors.Is(err, sentinel) || v != "" {
		t.Fatalf("expected (\"\", sentinel), got (%q, %v)", v, err)
	}
}

func TestNotifyBeforeCompletionRunsOnCompletingGoroutine(t *testing.T) {
	r := New[int]()
	var observed int
	notified := false
	r.Notify(func(res *Result[int]) {
		notified = true
		observed, _ = res.Get()
	})
	if notified {
		t.Fatalf("expected notifier not to run before completion")
	}
	r.Complete(7)
	if !notified {
		t.Fatalf("expected notifier to run on Complete")
	}
	if observed != 7 {
		t.Errorf("expected notifier to observe 7, got %d", observed)
	}
}

func TestNotifyAfterCompletionRunsSynchronously(t *testing.T) {
	r := Completed(9)
	ran := false
	r.Notify(func(res *Result[int]) { ran = true })
	if !ran {
		t.Fatalf("expected notifier to run synchronously when attached after completion")
	}
}

func TestCompleteTwicePanics(t *testing.T) {
	r := New[int]()
	r.Complete(1)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a second Complete to panic")
		}
	}()
	r.Complete(2)
}

func TestNotifyTwicePanics(t *testing.T) {
	r := New[int]()
	r.Notify(func(*Result[int]) {})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a second Notify to panic")
		}
	}()
	r.Notify(func(*Result[int]) {})
}

func TestCancelFailsWithErrCancelled(t *testing.T) {
	r := New[int]()
	r.Cancel()
	_, err := r.Get()
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestFailedConstructor(t *testing.T) {
	r := Failed[int](ErrCancelled)
	if !r.IsDone() {
		t.Fatalf("expected Failed to construct an already-done Result")
	}
}
