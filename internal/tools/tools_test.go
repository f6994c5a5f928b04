package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name: "echo",
			ParameterSchema: map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"msg"},
				"properties": map[string]interface{}{
					"msg": map[string]interface{}{"type": "string"},
				},
			},
		},
		Handler: func(ctx context.Context, caller string, args json.RawMessage) (interface{}, error) {
			var decoded map[string]interface{}
			_ = json.Unmarshal(args, &decoded)
			return decoded["msg"], nil
		},
	}
}

func TestDispatchExecutesRegisteredTool(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())

	out, err := reg.Dispatch(context.Background(), "alice", "echo", json.RawMessage(`{"msg":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestDispatchRejectsMissingRequiredArgument(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())

	_, err := reg.Dispatch(context.Background(), "alice", "echo", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDispatchRejectsUnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Dispatch(context.Background(), "alice", "nope", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDescriptorsPreserveRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Tool{Descriptor: Descriptor{Name: "a"}})
	reg.Register(Tool{Descriptor: Descriptor{Name: "b"}})

	names := []string{}
	for _, d := range reg.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)
}
