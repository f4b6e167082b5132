package relay

import "sync"

// callState is the mutable per-call state block shared by the two pumps.
// All fields are owned exclusively by one session; a single mutex keeps
// every mutation an atomic replace, so a reader never observes a torn
// write from the other pump.
//
// Utterance rules:
//   - utteranceStartMs is set at most once per utterance (first delta only)
//   - utteranceStartMs and activeItemID are always cleared together
//   - pendingMarks never goes negative (pop is a no-op on empty)
type callState struct {
	mu sync.Mutex

	// streamSID is empty until the caller leg's start event arrives.
	streamSID string

	// latestMediaTimestampMs is the most recent inbound media timestamp,
	// reset to 0 on each stream segment start.
	latestMediaTimestampMs int64

	// pendingMarks holds one label per outbound audio chunk not yet
	// echoed back by the caller leg.
	pendingMarks []string

	// activeItemID identifies the AI utterance currently being streamed,
	// empty when none is in flight.
	activeItemID string

	utteranceStartMs int64
	utteranceStarted bool
}

func newCallState() *callState {
	return &callState{}
}

// StreamSID returns the current stream identity, empty if the stream has
// not started.
func (st *callState) StreamSID() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.streamSID
}

// StartStream records a fresh call-leg segment: new stream identity,
// playback clock back to zero, no utterance in flight.
func (st *callState) StartStream(streamSID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.streamSID = streamSID
	st.latestMediaTimestampMs = 0
	st.activeItemID = ""
	st.utteranceStartMs = 0
	st.utteranceStarted = false
}

// UpdateTimestamp records the latest inbound media timestamp.
func (st *callState) UpdateTimestamp(ms int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.latestMediaTimestampMs = ms
}

// LatestTimestamp returns the most recent inbound media timestamp.
func (st *callState) LatestTimestamp() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.latestMediaTimestampMs
}

// ObserveDelta records one outbound audio delta: captures the utterance
// start clock on the first delta of an utterance and tracks the item id
// when the event carries one.
func (st *callState) ObserveDelta(itemID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.utteranceStarted {
		st.utteranceStartMs = st.latestMediaTimestampMs
		st.utteranceStarted = true
	}
	if itemID != "" {
		st.activeItemID = itemID
	}
}

// ActiveItemID returns the in-flight utterance item id, empty if none.
func (st *callState) ActiveItemID() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.activeItemID
}

// UtteranceStart returns the captured utterance start clock and whether
// an utterance is in flight.
func (st *callState) UtteranceStart() (int64, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.utteranceStartMs, st.utteranceStarted
}

// PushMark appends one pending mark label.
func (st *callState) PushMark(label string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pendingMarks = append(st.pendingMarks, label)
}

// PopMark removes the oldest pending mark. Returns false on an empty
// queue, which is a no-op.
func (st *callState) PopMark() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.pendingMarks) == 0 {
		return false
	}
	st.pendingMarks = st.pendingMarks[1:]
	return true
}

// PendingMarks returns the number of marks awaiting echo.
func (st *callState) PendingMarks() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.pendingMarks)
}

// interruptAction is the snapshot the interruption coordinator acts on.
type interruptAction struct {
	streamSID string
	itemID    string
	elapsedMs int64
	truncate  bool
	clamped   bool
}

// BeginInterrupt atomically snapshots the interruption decision and
// transitions the utterance state to idle. Returns false when no AI
// utterance is in flight.
//
// The truncate instruction fires only when at least one mark is pending
// and the utterance start clock was captured; the buffer clear and the
// state reset happen regardless. A negative elapsed value is a data
// error, clamped to zero.
func (st *callState) BeginInterrupt() (interruptAction, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.activeItemID == "" {
		return interruptAction{}, false
	}

	act := interruptAction{
		streamSID: st.streamSID,
		itemID:    st.activeItemID,
	}
	if len(st.pendingMarks) > 0 && st.utteranceStarted {
		elapsed := st.latestMediaTimestampMs - st.utteranceStartMs
		if elapsed < 0 {
			elapsed = 0
			act.clamped = true
		}
		act.elapsedMs = elapsed
		act.truncate = true
	}

	st.pendingMarks = nil
	st.activeItemID = ""
	st.utteranceStartMs = 0
	st.utteranceStarted = false

	return act, true
}
