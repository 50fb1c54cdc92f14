package vm

import "testing"

func TestThreadPushPopFrame(t *testing.T) {
	th := NewThread(1, "main", nil)
	if th.CurrentFrame() != nil {
		t.Fatalf("fresh thread should have no current frame")
	}
	f := NewFrame(testMethod(0, 0), nil)
	th.PushFrame(f)
	if th.CurrentFrame() != f {
		t.Fatalf("CurrentFrame() should return the just-pushed frame")
	}
}

func TestThreadPopEmptyStack(t *testing.T) {
	th := NewThread(1, "main", nil)
	if _, err := th.PopFrame(); err == nil {
		t.Fatalf("expected an error popping an empty call stack")
	}
}

func TestThreadDepthAndCheckDepth(t *testing.T) {
	th := NewThread(1, "main", nil)
	for i := 0; i < maxStackDepth; i++ {
		if err := th.CheckDepth(); err != nil {
			t.Fatalf("CheckDepth at depth %d: %v", i, err)
		}
		th.PushFrame(&Frame{})
	}
	if th.Depth() != maxStackDepth {
		t.Fatalf("Depth() = %d, want %d", th.Depth(), maxStackDepth)
	}
	if err := th.CheckDepth(); err == nil {
		t.Fatalf("expected StackOverflowError once depth reaches the limit")
	}
}

func TestThreadCurrentFrameIsTop(t *testing.T) {
	th := NewThread(1, "main", nil)
	f1 := &Frame{}
	f2 := &Frame{}
	th.PushFrame(f1)
	th.PushFrame(f2)
	if th.CurrentFrame() != f2 {
		t.Fatalf("CurrentFrame() should return the most recently pushed frame")
	}
	popped, err := th.PopFrame()
	if err != nil {
		t.Fatalf("PopFrame: %v", err)
	}
	if popped != f2 {
		t.Fatalf("PopFrame() returned the wrong frame")
	}
	if th.CurrentFrame() != f1 {
		t.Fatalf("CurrentFrame() should fall back to the remaining frame")
	}
}
