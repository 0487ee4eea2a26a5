package engine

import (
	"context"
	"errors"
	"html"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"go.opentelemetry.io/otel/attribute"
)

// Attack launches an intrusion against target.
func (e *Engine) Attack(ctx context.Context, target string) (Result, error) {
	return e.run(ctx, action.CommandTypeAttack, action.AttackPayload{Target: target})
}

// CraftFirewall spends resources to reinforce the firewall.
func (e *Engine) CraftFirewall(ctx context.Context) (Result, error) {
	return e.run(ctx, action.CommandTypeCraftWall, nil)
}

// StartVirusWave triggers a virus wave against the operator's server.
func (e *Engine) StartVirusWave(ctx context.Context) (Result, error) {
	return e.run(ctx, action.CommandTypeVirusWave, nil)
}

// DeployBot buys and deploys a bot of model.
func (e *Engine) DeployBot(ctx context.Context, model string) (Result, error) {
	return e.run(ctx, action.CommandTypeDeployBot, action.DeployBotPayload{Model: model})
}

// RecallBot returns a deployed bot to standby.
func (e *Engine) RecallBot(ctx context.Context, botID string) (Result, error) {
	return e.run(ctx, action.CommandTypeRecallBot, action.RecallBotPayload{BotID: botID})
}

// Reboot restores a flatlined server to its baseline telemetry.
func (e *Engine) Reboot(ctx context.Context) (Result, error) {
	return e.run(ctx, action.CommandTypeReboot, nil)
}

// SetUsername changes the operator name. Blank names reset to the default.
func (e *Engine) SetUsername(ctx context.Context, username string) (Result, error) {
	return e.run(ctx, action.CommandTypeSetUsername, action.SetUsernamePayload{Username: username})
}

func (e *Engine) run(ctx context.Context, typ command.Type, payload any) (Result, error) {
	cmd, err := action.NewCommand(typ, "", payload)
	if err != nil {
		return Result{}, err
	}
	return e.Execute(ctx, cmd)
}

// UpdateProfile validates and stores profile through the ordered commit
// path, so it never races an in-flight action's save.
func (e *Engine) UpdateProfile(ctx context.Context, profile player.Profile) (Result, error) {
	profile = profile.Normalize()
	task := e.enqueue(ctx, "engine.profile", func(ctx context.Context) Result {
		return e.commitProfile(ctx, profile)
	}, attribute.String("command.type", "player.profile.update"))
	return task.Wait(ctx)
}

func (e *Engine) commitProfile(ctx context.Context, profile player.Profile) Result {
	if err := profile.Validate(); err != nil {
		detail := map[string]any{}
		var fieldErr *player.FieldError
		if errors.As(err, &fieldErr) {
			detail["field"] = fieldErr.Field
		}
		return Result{
			Code:    string(apperrors.CodeProfileInvalid),
			Message: err.Error(),
			Detail:  detail,
			Entries: e.publish([]command.Note{command.Warn("[PROFILE] Update refused: " + html.EscapeString(err.Error()))}),
		}
	}

	e.mu.Lock()
	e.profile = profile
	e.mu.Unlock()

	result := Result{
		Success: true,
		Message: "profile updated",
		Entries: e.publish([]command.Note{command.Success("[PROFILE] Operator profile updated.")}),
	}
	if e.profiles == nil || e.stopped.Load() {
		return result
	}
	if err := recoverSave(func() error { return e.profiles.SaveProfile(ctx, profile) }); err != nil {
		result.Entries = append(result.Entries, e.saveFailed(ctx, err))
		return result
	}
	result.Persisted = true
	return result
}
