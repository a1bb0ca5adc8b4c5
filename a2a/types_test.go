package a2a

import (
	"encoding/json"
	"testing"
)

func TestMessageJSON(t *testing.T) {
	msg := NewMessageWithContext(MessageRoleUser, "ctx-1", nil,
		NewTextPart("hello "),
		NewTextPart("world"),
		NewDataPart(map[string]any{"type": "approval", "toolCallId": "call_1", "decision": "approve"}),
	)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.TextContent() != "hello world" {
		t.Errorf("expected text 'hello world', got %q", got.TextContent())
	}
	if got.ContextID == nil || *got.ContextID != "ctx-1" {
		t.Errorf("expected context ctx-1, got %v", got.ContextID)
	}
	if len(got.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(got.Parts))
	}
	if _, ok := got.Parts[2].(DataPart); !ok {
		t.Errorf("expected DataPart, got %T", got.Parts[2])
	}
}

func TestUnmarshalPart(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind string
	}{
		{"text", `{"kind":"text","text":"hi"}`, "text"},
		{"data", `{"kind":"data","data":{"a":1}}`, "data"},
		{"unknown kind becomes data", `{"kind":"file","data":null}`, "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := UnmarshalPart([]byte(tt.json))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.GetKind() != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, p.GetKind())
			}
		})
	}

	if _, err := UnmarshalPart([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestTaskStateIsTerminal(t *testing.T) {
	terminal := map[TaskState]bool{
		TaskStateSubmitted:     false,
		TaskStateWorking:       false,
		TaskStateInputRequired: false,
		TaskStateCompleted:     true,
		TaskStateFailed:        true,
		TaskStateRejected:      true,
	}
	for state, want := range terminal {
		if state.IsTerminal() != want {
			t.Errorf("%s: expected IsTerminal=%v", state, want)
		}
	}
}

func TestArtifactJSON(t *testing.T) {
	a := NewArtifact("calculate", "Tool execution result", NewTextPart("4"))
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Artifact
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ArtifactID != a.ArtifactID {
		t.Errorf("expected id %q, got %q", a.ArtifactID, got.ArtifactID)
	}
	if len(got.Parts) != 1 || got.Parts[0].(TextPart).Text != "4" {
		t.Errorf("unexpected parts: %+v", got.Parts)
	}
}
