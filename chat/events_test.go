package chat

import (
	"testing"
	"time"
)

func TestDispatcherOrderAndFanout(t *testing.T) {
	var d Dispatcher
	var order []string
	d.OnMessage(func(*Message) { order = append(order, "first") })
	d.OnMessage(func(*Message) { order = append(order, "second") })
	d.OnChat(func(*Message) { order = append(order, "chat") })

	d.emitMessage(&Message{})
	d.emitChat(&Message{})

	want := []string{"first", "second", "chat"}
	if len(order) != len(want) {
		t.Fatalf("calls = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("calls = %v, want %v", order, want)
		}
	}
}

func TestDispatcherNoObservers(t *testing.T) {
	var d Dispatcher
	// Emitting with nothing registered must be safe.
	d.emitMessage(&Message{})
	d.emitConnected()
	d.emitBan(Ban{Login: "x", Duration: time.Minute}, &Message{})
	d.emitSub(Sub{DisplayName: "x"}, &Message{})
	d.emitClose()
}

func TestDispatcherPayloads(t *testing.T) {
	var d Dispatcher
	var gotBan Ban
	var gotSub Sub
	d.OnBan(func(b Ban, _ *Message) { gotBan = b })
	d.OnSub(func(s Sub, _ *Message) { gotSub = s })

	d.emitBan(Ban{Login: "troll", Duration: 600 * time.Second}, &Message{})
	d.emitSub(Sub{DisplayName: "Ann", Months: 12, PlanName: "The Plan", Text: "hi"}, &Message{})

	if gotBan.Login != "troll" || gotBan.Duration != 600*time.Second {
		t.Errorf("ban = %+v", gotBan)
	}
	if gotSub.Months != 12 || gotSub.PlanName != "The Plan" {
		t.Errorf("sub = %+v", gotSub)
	}
}
