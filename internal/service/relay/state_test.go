package relay

import "testing"

func TestCallState_StartStreamResets(t *testing.T) {
	st := newCallState()
	st.StartStream("MZ1")
	st.UpdateTimestamp(4000)
	st.PushMark("responsePart")
	st.ObserveDelta("item_1")

	st.StartStream("MZ2")

	if got := st.StreamSID(); got != "MZ2" {
		t.Errorf("expected stream MZ2, got %s", got)
	}
	if got := st.LatestTimestamp(); got != 0 {
		t.Errorf("expected timestamp reset to 0, got %d", got)
	}
	if got := st.ActiveItemID(); got != "" {
		t.Errorf("expected active item cleared, got %s", got)
	}
	if _, started := st.UtteranceStart(); started {
		t.Error("expected utterance state cleared")
	}
	// Pending marks survive a segment restart; they still correspond to
	// audio the transport may yet acknowledge.
	if got := st.PendingMarks(); got != 1 {
		t.Errorf("expected 1 pending mark, got %d", got)
	}
}

func TestCallState_ObserveDelta_CapturesStartOnce(t *testing.T) {
	st := newCallState()
	st.StartStream("MZ1")
	st.UpdateTimestamp(1000)
	st.ObserveDelta("item_1")
	st.UpdateTimestamp(2000)
	st.ObserveDelta("item_1")

	startMs, started := st.UtteranceStart()
	if !started {
		t.Fatal("expected utterance started")
	}
	if startMs != 1000 {
		t.Errorf("expected start clock 1000 from first delta, got %d", startMs)
	}
	if got := st.ActiveItemID(); got != "item_1" {
		t.Errorf("expected active item item_1, got %s", got)
	}
}

func TestCallState_ObserveDelta_EmptyItemKeepsPrevious(t *testing.T) {
	st := newCallState()
	st.ObserveDelta("item_1")
	st.ObserveDelta("")

	if got := st.ActiveItemID(); got != "item_1" {
		t.Errorf("expected item_1 retained, got %s", got)
	}
}

func TestCallState_PopMark_NoopOnEmpty(t *testing.T) {
	st := newCallState()
	if st.PopMark() {
		t.Error("expected pop on empty queue to report false")
	}
	if got := st.PendingMarks(); got != 0 {
		t.Errorf("expected 0 pending marks, got %d", got)
	}

	st.PushMark("responsePart")
	st.PushMark("responsePart")
	if !st.PopMark() {
		t.Error("expected pop to succeed")
	}
	if got := st.PendingMarks(); got != 1 {
		t.Errorf("expected 1 pending mark, got %d", got)
	}
}

func TestCallState_BeginInterrupt(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(st *callState)
		wantOK       bool
		wantTruncate bool
		wantElapsed  int64
		wantClamped  bool
	}{
		{
			name:   "no utterance in flight",
			setup:  func(st *callState) { st.StartStream("MZ1") },
			wantOK: false,
		},
		{
			name: "full interruption",
			setup: func(st *callState) {
				st.StartStream("MZ1")
				st.UpdateTimestamp(1000)
				st.ObserveDelta("item_1")
				st.PushMark("responsePart")
				st.UpdateTimestamp(3500)
			},
			wantOK:       true,
			wantTruncate: true,
			wantElapsed:  2500,
		},
		{
			name: "no pending marks skips truncate",
			setup: func(st *callState) {
				st.StartStream("MZ1")
				st.UpdateTimestamp(1000)
				st.ObserveDelta("item_1")
			},
			wantOK:       true,
			wantTruncate: false,
		},
		{
			name: "clock behind start clamps to zero",
			setup: func(st *callState) {
				st.UpdateTimestamp(5000)
				st.ObserveDelta("item_1")
				st.PushMark("responsePart")
				st.UpdateTimestamp(4000)
			},
			wantOK:       true,
			wantTruncate: true,
			wantElapsed:  0,
			wantClamped:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newCallState()
			tt.setup(st)

			act, ok := st.BeginInterrupt()
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if act.truncate != tt.wantTruncate {
				t.Errorf("expected truncate=%v, got %v", tt.wantTruncate, act.truncate)
			}
			if act.elapsedMs != tt.wantElapsed {
				t.Errorf("expected elapsed %d, got %d", tt.wantElapsed, act.elapsedMs)
			}
			if act.clamped != tt.wantClamped {
				t.Errorf("expected clamped=%v, got %v", tt.wantClamped, act.clamped)
			}

			// The reset is unconditional.
			if got := st.ActiveItemID(); got != "" {
				t.Errorf("expected active item cleared, got %s", got)
			}
			if got := st.PendingMarks(); got != 0 {
				t.Errorf("expected marks flushed, got %d", got)
			}
			if _, started := st.UtteranceStart(); started {
				t.Error("expected utterance state cleared")
			}
		})
	}
}

func TestCallState_SecondInterruptIsNoop(t *testing.T) {
	st := newCallState()
	st.StartStream("MZ1")
	st.ObserveDelta("item_1")

	if _, ok := st.BeginInterrupt(); !ok {
		t.Fatal("expected first interrupt to fire")
	}
	if _, ok := st.BeginInterrupt(); ok {
		t.Error("expected second interrupt to be a no-op")
	}
}
