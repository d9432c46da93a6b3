package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pacebot/server/pkg/types"
)

// componentToggle is one parsed gearComponent action, value format
// "gearId:component:on|off". Toggles for the same gear ID are batched into a
// single persistence call so one pass never writes the same record twice.
type componentToggle struct {
	idx       int
	gearID    string
	component string
	disabled  bool
}

func parseComponentToggle(value string) (componentToggle, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return componentToggle{}, fmt.Errorf("gear component value %q must be \"gearId:component:on|off\"", value)
	}
	state := strings.ToLower(strings.TrimSpace(parts[2]))
	if state != "on" && state != "off" {
		return componentToggle{}, fmt.Errorf("gear component state %q must be on or off", parts[2])
	}
	return componentToggle{
		gearID:    strings.TrimSpace(parts[0]),
		component: strings.TrimSpace(parts[1]),
		disabled:  state == "off",
	}, nil
}

func (p *Processor) flushComponentToggles(ctx context.Context, logger *slog.Logger, user *types.UserProfile, toggles []componentToggle, results []Result) {
	if len(toggles) == 0 {
		return
	}
	if p.Database == nil {
		for _, t := range toggles {
			results[t.idx].Outcome = failure(ErrPersistence, fmt.Errorf("gear wear store not configured"))
		}
		return
	}

	byGear := make(map[string][]componentToggle)
	var order []string
	for _, t := range toggles {
		if _, seen := byGear[t.gearID]; !seen {
			order = append(order, t.gearID)
		}
		byGear[t.gearID] = append(byGear[t.gearID], t)
	}

	for _, gearID := range order {
		group := byGear[gearID]
		gw, err := p.Database.GetGearWear(ctx, user.ID, gearID)
		if err != nil || gw == nil {
			if err == nil {
				err = fmt.Errorf("gear wear record %q not found", gearID)
			}
			for _, t := range group {
				results[t.idx].Outcome = failure(ErrMissingEntity, err)
			}
			continue
		}

		changed := false
		for _, t := range group {
			comp := gw.Component(t.component)
			if comp == nil {
				results[t.idx].Outcome = failure(ErrMissingEntity,
					fmt.Errorf("component %q not found on gear %q", t.component, gearID))
				continue
			}
			if comp.Disabled != t.disabled {
				comp.Disabled = t.disabled
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := p.Database.SetGearWear(ctx, gw); err != nil {
			logger.Error("Gear wear update failed", "gear_id", gearID, "error", err)
			for _, t := range group {
				if results[t.idx].Outcome.OK {
					results[t.idx].Outcome = failure(ErrPersistence, err)
				}
			}
		}
	}
}
