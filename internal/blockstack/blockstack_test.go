package blockstack

import (
	berr "retrobasic/internal/errors"
	"retrobasic/internal/program"
	"testing"
)

func TestPushTopPop(t *testing.T) {
	var s Stack
	s.Push(&Frame{Kind: KindFor, Name: "I"})
	f, ok := s.Top()
	if !ok || f.Name != "I" {
		t.Fatalf("expected to see the pushed frame, got %+v ok=%v", f, ok)
	}
	popped, err := s.Pop(KindFor, 1)
	if err != nil {
		t.Fatalf("Pop: %v", err.Diagnostic())
	}
	if popped.Name != "I" {
		t.Fatalf("expected the popped frame to be the one pushed, got %+v", popped)
	}
	if _, ok := s.Top(); ok {
		t.Fatalf("expected the stack to be empty after Pop")
	}
}

func TestPopKindMismatchIsBlockMismatch(t *testing.T) {
	var s Stack
	s.Push(&Frame{Kind: KindDo})
	_, err := s.Pop(KindFor, 1)
	if err == nil || err.Kind != berr.BlockMismatch {
		t.Fatalf("expected a BlockMismatch error, got %v", err)
	}
}

func TestPopInnermostForSkipsNestedNonForFrames(t *testing.T) {
	var s Stack
	s.Push(&Frame{Kind: KindFor, Name: "I"})
	s.Push(&Frame{Kind: KindIf})
	f, err := s.PopInnermostFor("")
	if err != nil {
		t.Fatalf("PopInnermostFor: %v", err.Diagnostic())
	}
	if f.Kind != KindFor || f.Name != "I" {
		t.Fatalf("expected to pop down to the FOR frame, got %+v", f)
	}
	if s.Depth() != 0 {
		t.Fatalf("expected both frames gone, got depth %d", s.Depth())
	}
}

func TestPopInnermostForMatchesByName(t *testing.T) {
	var s Stack
	s.Push(&Frame{Kind: KindFor, Name: "I"})
	s.Push(&Frame{Kind: KindFor, Name: "J"})
	f, err := s.PopInnermostFor("I")
	if err != nil {
		t.Fatalf("PopInnermostFor: %v", err.Diagnostic())
	}
	if f.Name != "I" {
		t.Fatalf("expected to pop the named FOR regardless of nesting, got %+v", f)
	}
	if s.Depth() != 0 {
		t.Fatalf("expected frames above the match to also be discarded, got depth %d", s.Depth())
	}
}

func TestReturnStackPushPopDiscard(t *testing.T) {
	var r ReturnStack
	r.Push(program.PC{Line: 1})
	r.Push(program.PC{Line: 2})
	r.Discard()
	pc, ok := r.Pop()
	if !ok || pc.Line != 1 {
		t.Fatalf("expected Discard to drop the top, leaving line 1, got %+v ok=%v", pc, ok)
	}
	if r.Depth() != 0 {
		t.Fatalf("expected an empty stack, got depth %d", r.Depth())
	}
}

func TestCallStackEnforcesMaxDepth(t *testing.T) {
	var c CallStack
	for i := 0; i < MaxDepth; i++ {
		if err := c.Push(&CallFrame{}); err != nil {
			t.Fatalf("unexpected overflow at depth %d: %v", i, err.Diagnostic())
		}
	}
	if err := c.Push(&CallFrame{}); err == nil || err.Kind != berr.StackOverflow {
		t.Fatalf("expected a StackOverflow error at depth %d, got %v", MaxDepth, err)
	}
}

func TestCallStackFramesReturnsOutermostFirst(t *testing.T) {
	var c CallStack
	outer := &program.Procedure{Name: "OUTER"}
	inner := &program.Procedure{Name: "INNER"}
	c.Push(&CallFrame{Proc: outer})
	c.Push(&CallFrame{Proc: inner})
	frames := c.Frames()
	if len(frames) != 2 || frames[0].Proc.Name != "OUTER" || frames[1].Proc.Name != "INNER" {
		t.Fatalf("expected outermost-first ordering, got %+v", frames)
	}
}
