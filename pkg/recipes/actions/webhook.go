package actions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pacebot/server/pkg/types"
)

var webhookMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// ValidateWebhookValue checks a webhook action value at recipe save time:
// optional known method prefix, then an absolute URL (placeholder tags in the
// URL are allowed and resolved at dispatch time).
func ValidateWebhookValue(value string) error {
	target := strings.TrimSpace(value)
	if head, rest, found := strings.Cut(target, " "); found {
		if !webhookMethods[strings.ToUpper(head)] {
			return fmt.Errorf("unknown webhook method %q", head)
		}
		target = strings.TrimSpace(rest)
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return fmt.Errorf("webhook URL %q is not absolute", target)
	}
	return nil
}

// executeWebhook dispatches the action's URL. The value may carry a leading
// HTTP method ("PUT https://..."); POST is the default. The URL itself may
// contain placeholder tags, resolved against the raw activity. Non-GET
// requests attach the activity JSON as the body.
func (p *Processor) executeWebhook(ctx context.Context, logger *slog.Logger, act *types.Activity, action *types.Action) Outcome {
	if p.Webhooks == nil {
		return failure(ErrExternal, fmt.Errorf("webhook client not configured"))
	}

	method := http.MethodPost
	target := strings.TrimSpace(action.Value)
	if head, rest, found := strings.Cut(target, " "); found && webhookMethods[strings.ToUpper(head)] {
		method = strings.ToUpper(head)
		target = strings.TrimSpace(rest)
	}

	target = resolveRawTags(act, target)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return failure(ErrInvalidValue, fmt.Errorf("webhook URL %q is not absolute", target))
	}

	var body []byte
	if method != http.MethodGet {
		data, err := act.MarshalCompact()
		if err != nil {
			return failure(ErrInvalidValue, fmt.Errorf("marshal activity for webhook: %w", err))
		}
		body = data
	}

	status, err := p.Webhooks.Request(ctx, method, target, body)
	if err != nil {
		return failure(ErrExternal, fmt.Errorf("webhook %s %s: %w", method, target, err))
	}
	if status >= 400 {
		return failure(ErrExternal, fmt.Errorf("webhook %s %s: status %d", method, target, status))
	}
	logger.Info("Webhook dispatched", "method", method, "url", target, "status", status)
	return success()
}
