package app

import "sync"

// EventType names a realtime notification pushed to meeting subscribers.
type EventType string

const (
	EventQuestion EventType = "question"
	EventAnswer   EventType = "answer"
	EventClosed   EventType = "closed"
)

// AudienceInstructors addresses every instructor subscribed to a meeting.
const AudienceInstructors = "@instructors"

// Event is a notification scoped to a meeting. An empty To reaches every
// subscriber; otherwise To names a student ID or AudienceInstructors.
type Event struct {
	Type      EventType `json:"type"`
	MeetingID string    `json:"meetingId"`
	To        string    `json:"-"`
	Payload   any       `json:"payload"`
}

// Publisher receives side-effect notifications from the service.
type Publisher interface {
	Publish(Event)
}

// Subscriber describes who is listening. Instructors see every event of the meeting.
type Subscriber struct {
	StudentID  string
	Instructor bool
}

func (s Subscriber) wants(ev Event) bool {
	if s.Instructor || ev.To == "" {
		return true
	}
	return ev.To == s.StudentID
}

// Feed fans events out to per-meeting subscribers. Slow consumers lose the
// oldest buffered event rather than blocking the publisher.
type Feed struct {
	mu       sync.Mutex
	meetings map[string]map[chan Event]Subscriber
}

func NewFeed() *Feed {
	return &Feed{meetings: make(map[string]map[chan Event]Subscriber)}
}

// Subscribe registers a listener for meetingID. The caller must invoke the
// returned cancel function to release it.
func (f *Feed) Subscribe(meetingID string, who Subscriber) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	f.mu.Lock()
	subs, ok := f.meetings[meetingID]
	if !ok {
		subs = make(map[chan Event]Subscriber)
		f.meetings[meetingID] = subs
	}
	subs[ch] = who
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.meetings[meetingID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.meetings, meetingID)
		}
	}
	return ch, cancel
}

func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch, who := range f.meetings[ev.MeetingID] {
		if !who.wants(ev) {
			continue
		}
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Subscribers reports how many listeners a meeting has.
func (f *Feed) Subscribers(meetingID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.meetings[meetingID])
}
