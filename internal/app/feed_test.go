package app

import "testing"

func TestFeedRoutesByAudience(t *testing.T) {
	feed := NewFeed()
	inst, cancelInst := feed.Subscribe("m1", Subscriber{Instructor: true})
	defer cancelInst()
	alice, cancelAlice := feed.Subscribe("m1", Subscriber{StudentID: "alice"})
	defer cancelAlice()
	bob, cancelBob := feed.Subscribe("m1", Subscriber{StudentID: "bob"})
	defer cancelBob()
	elsewhere, cancelElsewhere := feed.Subscribe("m2", Subscriber{StudentID: "alice"})
	defer cancelElsewhere()

	feed.Publish(Event{Type: EventQuestion, MeetingID: "m1"})
	feed.Publish(Event{Type: EventQuestion, MeetingID: "m1", To: "alice"})
	feed.Publish(Event{Type: EventAnswer, MeetingID: "m1", To: AudienceInstructors})

	if got := len(inst); got != 3 {
		t.Fatalf("instructor expected 3 events, got %d", got)
	}
	if got := len(alice); got != 2 {
		t.Fatalf("alice expected 2 events, got %d", got)
	}
	if got := len(bob); got != 1 {
		t.Fatalf("bob expected 1 event, got %d", got)
	}
	if got := len(elsewhere); got != 0 {
		t.Fatalf("other meeting expected no events, got %d", got)
	}
}

func TestFeedDropsStaleEventsForSlowSubscribers(t *testing.T) {
	feed := NewFeed()
	ch, cancel := feed.Subscribe("m1", Subscriber{Instructor: true})
	defer cancel()

	for i := 0; i < 20; i++ {
		feed.Publish(Event{Type: EventAnswer, MeetingID: "m1", Payload: i})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected full buffer, got %d", len(ch))
	}
	var last Event
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Payload.(int) != 19 {
		t.Fatalf("expected newest event retained, got %v", last.Payload)
	}
}

func TestFeedCancelClosesAndCleansUp(t *testing.T) {
	feed := NewFeed()
	ch, cancel := feed.Subscribe("m1", Subscriber{StudentID: "alice"})
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if n := feed.Subscribers("m1"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}
