package actions

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/pacebot/server/pkg/testing/mocks"
	"github.com/pacebot/server/pkg/types"
)

func TestValidateWebhookValue(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"https://example.com/hook", true},
		{"PUT https://example.com/hook", true},
		{"get https://example.com/ping", true},
		{"BREW https://example.com/hook", false},
		{"example.com/hook", false},
		{"POST ftp://example.com", false},
	}
	for _, tt := range tests {
		err := ValidateWebhookValue(tt.value)
		if tt.ok && err != nil {
			t.Errorf("%q: unexpected error %v", tt.value, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%q: expected an error", tt.value)
		}
	}
}

func TestExecuteWebhook(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	act := &types.Activity{ID: 12345, Distance: 42.2}

	t.Run("default method is POST with a body", func(t *testing.T) {
		req := &mocks.MockRequester{}
		p := &Processor{Webhooks: req}

		out := p.executeWebhook(ctx, logger, act, action(types.ActionWebhook, "https://example.com/hook"))
		if !out.OK {
			t.Fatalf("expected success, got %+v", out)
		}
		if len(req.Calls) != 1 {
			t.Fatalf("expected 1 request, got %d", len(req.Calls))
		}
		call := req.Calls[0]
		if call.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", call.Method)
		}
		if len(call.Body) == 0 {
			t.Error("POST should carry the activity JSON body")
		}
	})

	t.Run("explicit method and tag resolution", func(t *testing.T) {
		req := &mocks.MockRequester{}
		p := &Processor{Webhooks: req}

		out := p.executeWebhook(ctx, logger, act, action(types.ActionWebhook, "PUT https://example.com/hook?activity=${id}"))
		if !out.OK {
			t.Fatalf("expected success, got %+v", out)
		}
		call := req.Calls[0]
		if call.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", call.Method)
		}
		if call.URL != "https://example.com/hook?activity=12345" {
			t.Errorf("tag not resolved: %s", call.URL)
		}
	})

	t.Run("GET carries no body", func(t *testing.T) {
		req := &mocks.MockRequester{}
		p := &Processor{Webhooks: req}

		p.executeWebhook(ctx, logger, act, action(types.ActionWebhook, "GET https://example.com/ping"))
		if body := req.Calls[0].Body; body != nil {
			t.Errorf("GET must not carry a body, got %d bytes", len(body))
		}
	})

	t.Run("4xx status is an external failure", func(t *testing.T) {
		p := &Processor{Webhooks: &mocks.MockRequester{
			RequestFunc: func(ctx context.Context, method, url string, body []byte) (int, error) {
				return 404, nil
			},
		}}
		out := p.executeWebhook(ctx, logger, act, action(types.ActionWebhook, "https://example.com/hook"))
		if out.OK || out.Kind != ErrExternal {
			t.Errorf("expected ErrExternal, got %+v", out)
		}
	})

	t.Run("transport error is an external failure", func(t *testing.T) {
		p := &Processor{Webhooks: &mocks.MockRequester{
			RequestFunc: func(ctx context.Context, method, url string, body []byte) (int, error) {
				return 0, fmt.Errorf("connection refused")
			},
		}}
		out := p.executeWebhook(ctx, logger, act, action(types.ActionWebhook, "https://example.com/hook"))
		if out.OK || out.Kind != ErrExternal {
			t.Errorf("expected ErrExternal, got %+v", out)
		}
	})
}

func TestGearComponentBatching(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	user := testUser()

	gw := &types.GearWear{
		ID:     "b1",
		UserID: "u1",
		Components: []*types.GearWearComponent{
			{Name: "chain"},
			{Name: "cassette"},
		},
	}
	getCalls, setCalls := 0, 0
	db := &mocks.MockDatabase{
		GetGearWearFunc: func(ctx context.Context, userID, gearID string) (*types.GearWear, error) {
			getCalls++
			if gearID == "b1" {
				return gw, nil
			}
			return nil, nil
		},
		SetGearWearFunc: func(ctx context.Context, g *types.GearWear) error {
			setCalls++
			return nil
		},
	}
	p := &Processor{Database: db}

	recipe := &types.Recipe{
		ID: "r1",
		Actions: []*types.Action{
			action(types.ActionGearComponent, "b1:chain:off"),
			action(types.ActionGearComponent, "b1:cassette:off"),
		},
	}
	results := p.ExecuteAll(ctx, logger, user, &types.Activity{Type: types.TypeRide}, recipe)

	for i, r := range results {
		if !r.Outcome.OK {
			t.Errorf("result %d failed: %+v", i, r.Outcome)
		}
	}
	if getCalls != 1 || setCalls != 1 {
		t.Errorf("same-gear toggles must batch into one read and one write, got %d/%d", getCalls, setCalls)
	}
	if !gw.Components[0].Disabled || !gw.Components[1].Disabled {
		t.Error("both components should be disabled")
	}

	t.Run("unknown component fails only its own action", func(t *testing.T) {
		recipe := &types.Recipe{
			ID: "r1",
			Actions: []*types.Action{
				action(types.ActionGearComponent, "b1:chain:on"),
				action(types.ActionGearComponent, "b1:derailleur:on"),
			},
		}
		results := p.ExecuteAll(ctx, logger, user, &types.Activity{Type: types.TypeRide}, recipe)
		okCount := 0
		for _, r := range results {
			if r.Outcome.OK {
				okCount++
			} else if r.Outcome.Kind != ErrMissingEntity {
				t.Errorf("expected ErrMissingEntity, got %+v", r.Outcome)
			}
		}
		if okCount != 1 {
			t.Errorf("expected exactly 1 success, got %d", okCount)
		}
	})

	t.Run("malformed value is rejected before batching", func(t *testing.T) {
		recipe := &types.Recipe{
			ID:      "r1",
			Actions: []*types.Action{action(types.ActionGearComponent, "b1:chain")},
		}
		results := p.ExecuteAll(ctx, logger, user, &types.Activity{}, recipe)
		if results[0].Outcome.OK || results[0].Outcome.Kind != ErrInvalidValue {
			t.Errorf("expected ErrInvalidValue, got %+v", results[0].Outcome)
		}
	})
}
