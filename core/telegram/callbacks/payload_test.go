package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name          string
		cb            *tele.Callback
		unique, data string
	}{
		{"nil", nil, "", ""},
		{"raw", &tele.Callback{Data: "\fskin_type|StatTrak|40|choose"}, "skin_type", "StatTrak|40|choose"},
		{"raw without payload", &tele.Callback{Data: "\fnoop"}, "noop", ""},
		{"routed", &tele.Callback{Unique: "category", Data: "3|view"}, "category", "3|view"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unique, data := ParseCallbackData(tc.cb)
			if unique != tc.unique || data != tc.data {
				t.Fatalf("got (%q, %q), want (%q, %q)", unique, data, tc.unique, tc.data)
			}
		})
	}
}
