package router

import (
	"context"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/skinshop/core/telegram"
	"github.com/m3rciful/skinshop/core/telegram/commands"
	"github.com/m3rciful/skinshop/core/telegram/state"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	return b
}

func textUpdate(id int, text string) tele.Update {
	user := &tele.User{ID: 77, FirstName: "Ann"}
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   text,
		Sender: user,
		Chat:   &tele.Chat{ID: 77},
	}}
}

func TestTextRouteResolvesCommands(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var called string
	_ = reg.RegisterCommand("/shop", commands.Command{
		Description: "Open shop",
		Handler:     func(tele.Context) error { called = "shop"; return nil },
	})

	unknown := 0
	route := TextRoute(reg, TextOptions{UnknownText: func(tele.Context) error { unknown++; return nil }})
	if route.Endpoint != tele.OnText {
		t.Fatalf("unexpected endpoint %v", route.Endpoint)
	}

	if err := route.Handler(b.NewContext(textUpdate(1, "/shop@skin_bot"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if called != "shop" {
		t.Fatal("command was not dispatched")
	}
	if err := route.Handler(b.NewContext(textUpdate(2, "hello"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if unknown != 1 {
		t.Fatalf("unknown text handler calls = %d", unknown)
	}
}

func TestStateRouteFiltersBySessionState(t *testing.T) {
	b := offlineBot(t)
	store := state.NewMemoryStore()
	calls := 0
	route := StateRoute(tele.OnPayment, "shop.payment", store, "payment", func(tele.Context) error {
		calls++
		return nil
	})

	if err := route.Handler(b.NewContext(textUpdate(10, "x"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if calls != 0 {
		t.Fatal("handler ran outside of the expected state")
	}

	if err := state.SetState(context.Background(), store, 77, "payment"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := route.Handler(b.NewContext(textUpdate(11, "x"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestCallbackRouteDispatchesByUnique(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var payload string
	_ = reg.RegisterCallback("skin", func(c tele.Context) error {
		payload = c.Callback().Data
		return nil
	})
	reg.SetCallbackNotFound(func(tele.Context) error { payload = "missing"; return nil })
	route := CallbackRoute(reg, CallbackOptions{})

	upd := func(id int, data string) tele.Update {
		return tele.Update{ID: id, Callback: &tele.Callback{
			Data:   data,
			Sender: &tele.User{ID: 5},
		}}
	}
	if err := route.Handler(b.NewContext(upd(1, "\fskin|42|select"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if payload != "\fskin|42|select" {
		t.Fatalf("unexpected payload %q", payload)
	}
	if err := route.Handler(b.NewContext(upd(2, "\fbogus|1"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if payload != "missing" {
		t.Fatal("not-found handler was not used")
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{"": "unknown", "/Shop": "shop", " buy now ": "buy_now"}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
