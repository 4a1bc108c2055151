package socket

import (
	"testing"
)

func TestParseMessage(t *testing.T) {
	msg, wireErr := ParseMessage([]byte(`{"id": 5, "type": "ping", "extra": "x"}`))
	if wireErr != nil {
		t.Fatalf("ParseMessage error: %v", wireErr)
	}
	if msg.ID != 5 || msg.Type != "ping" {
		t.Errorf("got id=%d type=%q, want 5/ping", msg.ID, msg.Type)
	}
	if _, ok := msg.Fields["id"]; ok {
		t.Error("id should be stripped from Fields")
	}
	if msg.Fields["extra"] != "x" {
		t.Error("command fields should survive parsing")
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"missing id", `{"type": "ping"}`},
		{"zero id", `{"id": 0, "type": "ping"}`},
		{"negative id", `{"id": -3, "type": "ping"}`},
		{"fractional id", `{"id": 1.5, "type": "ping"}`},
		{"string id", `{"id": "1", "type": "ping"}`},
		{"missing type", `{"id": 1}`},
		{"empty type", `{"id": 1, "type": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, wireErr := ParseMessage([]byte(tt.data))
			if wireErr == nil {
				t.Fatal("expected error")
			}
			if wireErr.Code != ErrCodeInvalidFormat {
				t.Errorf("code = %q, want %q", wireErr.Code, ErrCodeInvalidFormat)
			}
		})
	}
}

func TestSchemaValidate(t *testing.T) {
	schema := Schema{
		{Name: "name", Kind: KindString, Required: true},
		{Name: "level", Kind: KindInt},
		{Name: "mode", Kind: KindString, Allowed: []string{"on", "off"}, Default: "off"},
		{Name: "aliases", Kind: KindStringList},
	}

	out, wireErr := schema.Validate(map[string]any{
		"name":    "Kitchen",
		"level":   float64(2),
		"aliases": "cookhouse",
	})
	if wireErr != nil {
		t.Fatalf("Validate error: %v", wireErr)
	}
	if out["name"] != "Kitchen" {
		t.Errorf("name = %v", out["name"])
	}
	if out["level"] != 2 {
		t.Errorf("level = %v, want coerced int 2", out["level"])
	}
	if out["mode"] != "off" {
		t.Errorf("mode = %v, want default off", out["mode"])
	}
	aliases, ok := out["aliases"].([]string)
	if !ok || len(aliases) != 1 || aliases[0] != "cookhouse" {
		t.Errorf("aliases = %v, want bare string wrapped in list", out["aliases"])
	}
}

func TestSchemaValidate_Failures(t *testing.T) {
	schema := Schema{
		{Name: "name", Kind: KindString, Required: true},
		{Name: "level", Kind: KindInt},
		{Name: "mode", Kind: KindString, Allowed: []string{"on", "off"}},
		{Name: "tags", Kind: KindStringList},
		{Name: "opts", Kind: KindObject},
	}

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"required missing", map[string]any{}},
		{"unknown field", map[string]any{"name": "x", "bogus": 1}},
		{"wrong type", map[string]any{"name": 42}},
		{"fractional int", map[string]any{"name": "x", "level": 1.5}},
		{"not in allowed set", map[string]any{"name": "x", "mode": "auto"}},
		{"mixed list", map[string]any{"name": "x", "tags": []any{"a", 2}}},
		{"object wrong type", map[string]any{"name": "x", "opts": "not an object"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, wireErr := schema.Validate(tt.fields)
			if wireErr == nil {
				t.Fatal("expected error")
			}
			if wireErr.Code != ErrCodeInvalidFormat {
				t.Errorf("code = %q, want %q", wireErr.Code, ErrCodeInvalidFormat)
			}
		})
	}
}

func TestSchemaValidate_DoesNotMutateInput(t *testing.T) {
	schema := Schema{
		{Name: "mode", Kind: KindString, Default: "off"},
	}
	in := map[string]any{}
	if _, wireErr := schema.Validate(in); wireErr != nil {
		t.Fatalf("Validate error: %v", wireErr)
	}
	if len(in) != 0 {
		t.Error("input map was mutated")
	}
}
