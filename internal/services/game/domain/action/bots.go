package action

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

func (d *Decider) decideDeployBot(state player.State, cmd command.Command, payload DeployBotPayload, now time.Time) command.Decision {
	modelID := strings.TrimSpace(payload.Model)
	model, ok := d.balance.BotModel(modelID)
	if !ok {
		return reject(apperrors.CodeBotModelUnknown, sprintf("Deploy aborted: unknown bot model %s.", highlight(modelID)))
	}
	if state.Flatlined() {
		return reject(apperrors.CodeServerOffline, "Deploy aborted: server is offline. Reboot to restore it.")
	}
	if state.ActiveBots() >= d.balance.MaxBots {
		return reject(apperrors.CodeBotFleetFull, sprintf("Deploy aborted: fleet is at capacity (%d bots).", d.balance.MaxBots))
	}
	if state.Credits < model.Cost {
		return reject(apperrors.CodeInsufficientResources, sprintf(
			"Insufficient credits: %s costs %d (have %d).", model.Name, model.Cost, state.Credits))
	}

	botID := nextBotID(state, normalizeID(model.ID))
	decision := command.Accept(
		resourcesEvent(cmd, aggregate.ResourcesAdjustedPayload{Credits: -model.Cost, Reason: "bot.deploy"}, now),
		newEvent(cmd, aggregate.EventTypeBotDeployed, aggregate.EntityTypeBot, botID, aggregate.BotDeployedPayload{
			BotID: botID,
			Model: normalizeID(model.ID),
		}, now),
	)
	return decision.
		WithNotes(command.Success(sprintf("[DEPLOY] %s online as %s. -%d credits.", model.Name, botID, model.Cost))).
		WithDetail("botId", botID).
		WithDetail("cost", model.Cost)
}

// nextBotID numbers bots per model, skipping ids already in the fleet.
func nextBotID(state player.State, model string) string {
	n := 1
	for _, bot := range state.Bots {
		if bot.Model == model {
			n++
		}
	}
	for {
		id := fmt.Sprintf("%s-%d", model, n)
		if _, taken := state.Bot(id); !taken {
			return id
		}
		n++
	}
}

func (d *Decider) decideRecallBot(state player.State, cmd command.Command, payload RecallBotPayload, now time.Time) command.Decision {
	botID := strings.TrimSpace(payload.BotID)
	bot, ok := state.Bot(botID)
	if !ok {
		return reject(apperrors.CodeBotNotFound, sprintf("Recall aborted: no bot %s in the fleet.", highlight(botID)))
	}
	if bot.Status != player.BotDeployed {
		return reject(apperrors.CodeBotNotDeployed, sprintf("Recall aborted: %s is %s.", highlight(bot.ID), bot.Status))
	}
	return command.Accept(botStatusEvent(cmd, bot, player.BotIdle, "bot.recall", now)).
		WithNotes(command.Info(sprintf("[DEPLOY] %s recalled to standby.", highlight(bot.ID)))).
		WithDetail("botId", bot.ID)
}
