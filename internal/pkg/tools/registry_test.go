package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndInvoke(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(Tool{
		Name:        "echo",
		Description: "returns its arguments",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			return string(args), nil
		},
	})
	require.NoError(t, err)

	result, err := reg.Invoke(context.Background(), "echo", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, result)
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := NewRegistry()
	tool := Tool{Name: "dup", Handler: func(context.Context, json.RawMessage) (any, error) { return nil, nil }}
	require.NoError(t, reg.Register(tool))
	assert.Error(t, reg.Register(tool))
}

func TestRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, json.RawMessage) (any, error) { return nil, nil }
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, reg.Register(Tool{Name: name, Handler: noop}))
	}

	var names []string
	for _, tool := range reg.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestDecodeArgs_Validation(t *testing.T) {
	var args accountArgs
	err := decodeArgs(json.RawMessage(`{}`), &args)
	assert.ErrorIs(t, err, ErrInvalidArgs)

	err = decodeArgs(json.RawMessage(`{"account_id":"acc_1"}`), &args)
	require.NoError(t, err)
	assert.Equal(t, "acc_1", args.AccountID)

	err = decodeArgs(json.RawMessage(`not-json`), &args)
	assert.ErrorIs(t, err, ErrInvalidArgs)
}
