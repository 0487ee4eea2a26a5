package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Shopify/go-lua"
)

// LoadBalanceFile runs a Lua balance script and overlays the table it returns
// onto DefaultBalance. Keys mirror the JSON names of Balance; lists such as
// targets and bots replace the defaults wholesale.
//
//	return {
//	  max_bots = 8,
//	  firewall = { credits = 500 },
//	  targets = { flatline.target("red-server", "RED-Server", "enemy", 60, 300, 600) },
//	}
func LoadBalanceFile(path string) (Balance, error) {
	return loadBalance(func(state *lua.State) error {
		return lua.LoadFile(state, path, "")
	})
}

// ParseBalance is LoadBalanceFile for an in-memory script.
func ParseBalance(source string) (Balance, error) {
	return loadBalance(func(state *lua.State) error {
		return lua.LoadString(state, source)
	})
}

func loadBalance(load func(*lua.State) error) (Balance, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerBalanceHelpers(state)

	if err := load(state); err != nil {
		return Balance{}, fmt.Errorf("load balance script: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return Balance{}, fmt.Errorf("run balance script: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeTable {
		state.Pop(1)
		return Balance{}, fmt.Errorf("balance script must return a table")
	}
	overrides := tableToGo(state, -1)
	state.Pop(1)

	raw, err := json.Marshal(overrides)
	if err != nil {
		return Balance{}, fmt.Errorf("encode balance overrides: %w", err)
	}
	balance := DefaultBalance()
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&balance); err != nil {
		return Balance{}, fmt.Errorf("apply balance overrides: %w", err)
	}
	if err := balance.Validate(); err != nil {
		return Balance{}, fmt.Errorf("balance invalid: %w", err)
	}
	return balance, nil
}

func registerBalanceHelpers(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, balanceHelpers, 0)
	state.SetGlobal("flatline")
}

var balanceHelpers = []lua.RegistryFunction{
	{Name: "target", Function: targetHelper},
	{Name: "bot", Function: botHelper},
}

// flatline.target(id, name, faction, defense, reward_min, reward_max [, contested])
func targetHelper(state *lua.State) int {
	id := lua.CheckString(state, 1)
	name := lua.CheckString(state, 2)
	faction := lua.CheckString(state, 3)
	defense := lua.OptInteger(state, 4, 0)
	rewardMin := lua.OptInteger(state, 5, 0)
	rewardMax := lua.OptInteger(state, 6, 0)
	contested := state.ToBoolean(7)

	state.NewTable()
	state.PushString(id)
	state.SetField(-2, "id")
	state.PushString(name)
	state.SetField(-2, "name")
	state.PushString(faction)
	state.SetField(-2, "faction")
	state.PushInteger(defense)
	state.SetField(-2, "defense")
	state.PushInteger(rewardMin)
	state.SetField(-2, "reward_min")
	state.PushInteger(rewardMax)
	state.SetField(-2, "reward_max")
	state.PushBoolean(contested)
	state.SetField(-2, "contested")
	return 1
}

// flatline.bot(id, name, class, damage, speed, cost)
func botHelper(state *lua.State) int {
	id := lua.CheckString(state, 1)
	name := lua.CheckString(state, 2)
	class := lua.CheckString(state, 3)
	damage := lua.CheckInteger(state, 4)
	speed := lua.CheckInteger(state, 5)
	cost := lua.CheckInteger(state, 6)

	state.NewTable()
	state.PushString(id)
	state.SetField(-2, "id")
	state.PushString(name)
	state.SetField(-2, "name")
	state.PushString(class)
	state.SetField(-2, "class")
	state.PushInteger(damage)
	state.SetField(-2, "damage")
	state.PushInteger(speed)
	state.SetField(-2, "speed")
	state.PushInteger(cost)
	state.SetField(-2, "cost")
	return 1
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		if math.Mod(value, 1) == 0 {
			return int(value)
		}
		return value
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo returns a slice for sequence tables and a map otherwise.
func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}
