package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRegistryRejectsDuplicateAndBlankTypes(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "player.resources_adjusted"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(Definition{Type: "player.resources_adjusted"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := registry.Register(Definition{Type: "  "}); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired, got %v", err)
	}
}

func TestValidateForAppend(t *testing.T) {
	registry := NewRegistry()
	mustRegister(t, registry, Definition{
		Type:          "player.bot_deployed",
		RequireEntity: true,
		ValidatePayload: func(raw json.RawMessage) error {
			var payload struct {
				Model string `json:"model"`
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.Model == "" {
				return errors.New("model is required")
			}
			return nil
		},
	})

	base := Event{
		Type:        "player.bot_deployed",
		Timestamp:   time.Unix(0, 0).UTC(),
		EntityID:    "striker-x-1",
		PayloadJSON: []byte(`{"model":"striker-x"}`),
	}
	if _, err := registry.ValidateForAppend(base); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	unknown := base
	unknown.Type = "player.teleported"
	if _, err := registry.ValidateForAppend(unknown); !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}

	noEntity := base
	noEntity.EntityID = " "
	if _, err := registry.ValidateForAppend(noEntity); !errors.Is(err, ErrEntityIDRequired) {
		t.Fatalf("expected ErrEntityIDRequired, got %v", err)
	}

	badJSON := base
	badJSON.PayloadJSON = []byte("{")
	if _, err := registry.ValidateForAppend(badJSON); !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}

	badPayload := base
	badPayload.PayloadJSON = []byte(`{}`)
	if _, err := registry.ValidateForAppend(badPayload); err == nil {
		t.Fatal("expected payload validator error")
	}
}

func TestValidateForAppendDefaultsTimestampAndPayload(t *testing.T) {
	registry := NewRegistry()
	mustRegister(t, registry, Definition{Type: "player.server_reset"})

	evt, err := registry.ValidateForAppend(Event{Type: "player.server_reset"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if evt.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if string(evt.PayloadJSON) != "{}" {
		t.Fatalf("expected empty object payload, got %s", evt.PayloadJSON)
	}
	if types := registry.Types(); len(types) != 1 || types[0] != "player.server_reset" {
		t.Fatalf("unexpected types: %v", types)
	}
}

func mustRegister(t *testing.T, registry *Registry, def Definition) {
	t.Helper()
	if err := registry.Register(def); err != nil {
		t.Fatalf("register %s: %v", def.Type, err)
	}
}
