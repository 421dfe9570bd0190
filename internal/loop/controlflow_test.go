package loop

import (
	"testing"
	"time"
)

func TestControlFlowExitAbsorbs(t *testing.T) {
	cf := &ControlFlow{}
	cf.SetExit()

	cf.SetPoll()
	if !cf.Exiting() {
		t.Fatal("SetPoll cleared Exit")
	}
	cf.SetWait()
	if !cf.Exiting() {
		t.Fatal("SetWait cleared Exit")
	}
	cf.SetWaitUntil(time.Now().Add(time.Hour))
	if !cf.Exiting() {
		t.Fatal("SetWaitUntil cleared Exit")
	}
	if _, ok := cf.WaitDeadline(); ok {
		t.Fatal("WaitDeadline set while exiting")
	}
}

func TestControlFlowWaitUntil(t *testing.T) {
	cf := &ControlFlow{}
	deadline := time.Now().Add(time.Minute)
	cf.SetWaitUntil(deadline)

	got, ok := cf.WaitDeadline()
	if !ok {
		t.Fatal("WaitDeadline not set")
	}
	if !got.Equal(deadline) {
		t.Fatalf("WaitDeadline = %v, want %v", got, deadline)
	}

	cf.SetWait()
	if _, ok := cf.WaitDeadline(); ok {
		t.Fatal("WaitDeadline survived SetWait")
	}
}
