package action

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/louisbranch/flatline/internal/services/game/domain/command"
)

const (
	CommandTypeAttack      command.Type = "attack.launch"
	CommandTypeCraftWall   command.Type = "firewall.craft"
	CommandTypeVirusWave   command.Type = "virus.wave.start"
	CommandTypeDeployBot   command.Type = "bot.deploy"
	CommandTypeRecallBot   command.Type = "bot.recall"
	CommandTypeReboot      command.Type = "server.reboot"
	CommandTypeSetUsername command.Type = "player.username.set"
)

// AttackPayload is the payload of attack.launch.
type AttackPayload struct {
	Target string `json:"target"`
}

// DeployBotPayload is the payload of bot.deploy.
type DeployBotPayload struct {
	Model string `json:"model"`
}

// RecallBotPayload is the payload of bot.recall.
type RecallBotPayload struct {
	BotID string `json:"bot_id"`
}

// SetUsernamePayload is the payload of player.username.set.
type SetUsernamePayload struct {
	Username string `json:"username"`
}

// RegisterCommands adds every action command definition to registry.
// Payload validators only check shape; game rules are the deciders' job and
// produce rejections rather than errors.
func RegisterCommands(registry *command.Registry) error {
	defs := []command.Definition{
		{Type: CommandTypeAttack, ValidatePayload: shapeOf[AttackPayload]},
		{Type: CommandTypeCraftWall, ValidatePayload: emptyObject},
		{Type: CommandTypeVirusWave, ValidatePayload: emptyObject},
		{Type: CommandTypeDeployBot, ValidatePayload: shapeOf[DeployBotPayload]},
		{Type: CommandTypeRecallBot, ValidatePayload: shapeOf[RecallBotPayload]},
		{Type: CommandTypeReboot, ValidatePayload: emptyObject},
		{Type: CommandTypeSetUsername, ValidatePayload: shapeOf[SetUsernamePayload]},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func shapeOf[T any](raw json.RawMessage) error {
	var payload T
	return json.Unmarshal(raw, &payload)
}

func emptyObject(raw json.RawMessage) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if len(payload) > 0 {
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return errors.New("unexpected fields: " + strings.Join(keys, ", "))
	}
	return nil
}

// NewCommand builds a command with a JSON payload. A nil payload means {}.
func NewCommand(typ command.Type, actorID string, payload any) (command.Command, error) {
	cmd := command.Command{Type: typ, ActorID: actorID}
	if payload == nil {
		return cmd, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return command.Command{}, err
	}
	cmd.PayloadJSON = raw
	return cmd, nil
}
