package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
)

type fakeResponse struct {
	status int
	body   string
	err    error
}

type fakeDoer struct {
	mu       sync.Mutex
	byOp     map[string]fakeResponse
	requests []string
	bodies   map[string][]byte
	agents   []string
}

func (f *fakeDoer) DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := string(req.URI().Path())
	body := append([]byte(nil), req.Body()...)
	if len(body) > 0 {
		var gql graphQLRequest
		if err := json.Unmarshal(body, &gql); err == nil {
			key = gql.OperationName
		}
	}
	f.requests = append(f.requests, key)
	if f.bodies == nil {
		f.bodies = make(map[string][]byte)
	}
	f.bodies[key] = body
	f.agents = append(f.agents, string(req.Header.UserAgent()))

	r, ok := f.byOp[key]
	if !ok {
		resp.SetStatusCode(fasthttp.StatusNotFound)
		return nil
	}
	if r.err != nil {
		return r.err
	}
	resp.SetStatusCode(r.status)
	resp.SetBodyString(r.body)
	return nil
}

func newTestClient(d *fakeDoer) *Client {
	return New(d, Config{
		GraphQLURL:   "https://wiki.test/api/graphql",
		ImageBaseURL: "https://img.test/data/images/",
		RateURL:      "https://rates.test/api/currency.php",
		RateAPIKey:   "k",
	})
}

func ptr(v int64) *int64 { return &v }

func TestImagesFirstSeenWins(t *testing.T) {
	d := &fakeDoer{byOp: map[string]fakeResponse{
		"pattern_list": {status: 200, body: `{"data":{"pattern_list":[
			{"exterior":"Field-Tested","uuid":"a1"},
			{"exterior":"Factory New","uuid":"b2"},
			{"exterior":"Field-Tested","uuid":"c3"}]}}`},
	}}
	images, err := newTestClient(d).Images(context.Background(), "AK-47 | Redline")
	if err != nil {
		t.Fatalf("Images: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("len = %d, want 2", len(images))
	}
	if images[0].Exterior != "Field-Tested" || images[0].URL != "https://img.test/data/images/wiki_a1_preview.png" {
		t.Fatalf("first image = %+v", images[0])
	}
	if images[1].Exterior != "Factory New" {
		t.Fatalf("second image = %+v", images[1])
	}

	var sent graphQLRequest
	if err := json.Unmarshal(d.bodies["pattern_list"], &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if sent.Variables["name"] != "AK-47 | Redline" || sent.Variables["sortBy"] != "float_value" {
		t.Fatalf("variables = %v", sent.Variables)
	}
	if d.agents[0] == "" {
		t.Fatal("expected a user agent")
	}
}

func TestPricesLastValueWins(t *testing.T) {
	d := &fakeDoer{byOp: map[string]fakeResponse{
		"price_trader_log": {status: 200, body: `{"data":{"price_trader_log":[
			{"name_id":10,"values":[{"price_trader_new":11.0},{"price_trader_new":12.5}]},
			{"name_id":11,"values":[]}]}}`},
	}}
	prices, err := newTestClient(d).Prices(context.Background(), []*int64{ptr(10), nil, ptr(11)})
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if got := prices[10]; got != 12.5 {
		t.Fatalf("price[10] = %v, want 12.5", got)
	}
	if _, ok := prices[11]; ok {
		t.Fatal("id without values must be absent")
	}

	var sent struct {
		Variables struct {
			NameIDs []int64 `json:"name_ids"`
		} `json:"variables"`
	}
	if err := json.Unmarshal(d.bodies["price_trader_log"], &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(sent.Variables.NameIDs) != 2 {
		t.Fatalf("name_ids = %v, want nils filtered", sent.Variables.NameIDs)
	}
}

func TestPricesWithoutIDsSkipsRequest(t *testing.T) {
	d := &fakeDoer{}
	prices, err := newTestClient(d).Prices(context.Background(), []*int64{nil, nil})
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(prices) != 0 || len(d.requests) != 0 {
		t.Fatalf("prices=%v requests=%v", prices, d.requests)
	}
}

func TestExchangeRate(t *testing.T) {
	cases := []struct {
		name    string
		resp    fakeResponse
		want    float64
		wantErr bool
	}{
		{name: "ok", resp: fakeResponse{status: 200, body: `{"error":0,"error_message":"-","amount":90}`}, want: 90},
		{name: "unrounded", resp: fakeResponse{status: 200, body: `{"error":0,"amount":91.4567}`}, want: 91.4567},
		{name: "api error", resp: fakeResponse{status: 200, body: `{"error":120,"error_message":"bad key","amount":0}`}, wantErr: true},
		{name: "status", resp: fakeResponse{status: 503}, wantErr: true},
		{name: "transport", resp: fakeResponse{err: errors.New("dial tcp: refused")}, wantErr: true},
		{name: "garbage", resp: fakeResponse{status: 200, body: `<html>`}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDoer{byOp: map[string]fakeResponse{"/api/currency.php": tc.resp}}
			got, err := newTestClient(d).ExchangeRate(context.Background(), "rub")
			if tc.wantErr {
				var pe *ProviderError
				if !errors.As(err, &pe) {
					t.Fatalf("err = %v, want *ProviderError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExchangeRate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("rate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGraphQLErrorsBecomeProviderError(t *testing.T) {
	d := &fakeDoer{byOp: map[string]fakeResponse{
		"pattern_list": {status: 200, body: `{"errors":[{"message":"rate limited"}]}`},
	}}
	_, err := newTestClient(d).Images(context.Background(), "x")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Op != "images" || !strings.Contains(pe.Error(), "rate limited") {
		t.Fatalf("err = %v", err)
	}
}

func TestCancelledContextSkipsRequest(t *testing.T) {
	d := &fakeDoer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestClient(d).Images(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(d.requests) != 0 {
		t.Fatalf("requests = %v", d.requests)
	}
}

func TestLookup(t *testing.T) {
	d := &fakeDoer{byOp: map[string]fakeResponse{
		"pattern_list":     {status: 200, body: `{"data":{"pattern_list":[{"exterior":"Minimal Wear","uuid":"u"}]}}`},
		"price_trader_log": {status: 200, body: `{"data":{"price_trader_log":[{"name_id":7,"values":[{"price_trader_new":3.25}]}]}}`},
	}}
	images, prices, err := newTestClient(d).Lookup(context.Background(), "M4A4 | Howl", []*int64{ptr(7)})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(images) != 1 || prices[7] != 3.25 {
		t.Fatalf("images=%v prices=%v", images, prices)
	}

	d.byOp["price_trader_log"] = fakeResponse{status: 500}
	if _, _, err := newTestClient(d).Lookup(context.Background(), "M4A4 | Howl", []*int64{ptr(7)}); err == nil {
		t.Fatal("expected error when one side fails")
	}
}
