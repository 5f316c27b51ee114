package testutil

import (
	"context"
	"sync"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/notify"
)

// RecordedSignal is one notification seen by RecordingNotifier
type RecordedSignal struct {
	Event       string
	MemberID    uint32
	ReferenceNo string
}

// RecordingNotifier captures lifecycle signals for assertions.
type RecordingNotifier struct {
	mu      sync.Mutex
	signals []RecordedSignal
}

var _ notify.Notifier = (*RecordingNotifier)(nil)

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) OnApproved(_ context.Context, member *model.Member) {
	n.record(notify.EventApproved, member)
}

func (n *RecordingNotifier) OnRejected(_ context.Context, member *model.Member) {
	n.record(notify.EventRejected, member)
}

func (n *RecordingNotifier) OnRenewed(_ context.Context, member *model.Member) {
	n.record(notify.EventRenewed, member)
}

func (n *RecordingNotifier) record(event string, member *model.Member) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, RecordedSignal{Event: event, MemberID: member.ID, ReferenceNo: member.ReferenceNo})
}

// Signals returns a copy of everything recorded so far
func (n *RecordingNotifier) Signals() []RecordedSignal {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]RecordedSignal(nil), n.signals...)
}

// Count returns how many signals of event were recorded
func (n *RecordingNotifier) Count(event string) int {
	count := 0
	for _, s := range n.Signals() {
		if s.Event == event {
			count++
		}
	}
	return count
}
