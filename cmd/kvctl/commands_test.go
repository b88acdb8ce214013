package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Get(ctx context.Context, key string) (any, error) {
	args := m.Called(key)
	return args.Get(0), args.Error(1)
}

func (m *mockClient) Set(ctx context.Context, key string, value any) error {
	return m.Called(key, value).Error(0)
}

func (m *mockClient) Remove(ctx context.Context, key string, remote bool) (bool, error) {
	args := m.Called(key, remote)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) Keys(ctx context.Context) ([]string, error) {
	args := m.Called()
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *mockClient) Sync(ctx context.Context, force bool) (bool, error) {
	args := m.Called(force)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) ForceSync(ctx context.Context) (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) Diagnose(ctx context.Context) ([]string, error) {
	args := m.Called()
	issues, _ := args.Get(0).([]string)
	return issues, args.Error(1)
}

func (m *mockClient) Export(ctx context.Context) ([]byte, error) {
	args := m.Called()
	doc, _ := args.Get(0).([]byte)
	return doc, args.Error(1)
}

func (m *mockClient) Import(ctx context.Context, document []byte) (map[string]any, error) {
	args := m.Called(string(document))
	result, _ := args.Get(0).(map[string]any)
	return result, args.Error(1)
}

// execute runs kvctl with args against client and returns the output.
func execute(t *testing.T, client *mockClient, args ...string) (string, error) {
	t.Helper()

	var dialed string
	dial := func(addr string) (kvClient, func() error, error) {
		dialed = addr
		return client, func() error { return nil }, nil
	}

	cmd := newRootCmd(dial)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--addr", "test:1"}, args...))

	err := cmd.Execute()
	if dialed != "" {
		assert.Equal(t, "test:1", dialed)
	}
	return out.String(), err
}

func TestGet(t *testing.T) {
	client := new(mockClient)
	client.On("Get", "theme").Return("dark", nil)

	out, err := execute(t, client, "get", "theme")

	require.NoError(t, err)
	assert.Equal(t, "\"dark\"\n", out)
	client.AssertExpectations(t)
}

func TestGetRequiresKey(t *testing.T) {
	_, err := execute(t, new(mockClient), "get")

	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		value any
	}{
		{name: "json object", raw: `{"a":1}`, value: map[string]any{"a": float64(1)}},
		{name: "json number", raw: "15", value: float64(15)},
		{name: "plain string", raw: "dark", value: "dark"},
		{name: "json string", raw: `"r_1"`, value: "r_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockClient)
			client.On("Set", "k", tt.value).Return(nil)

			out, err := execute(t, client, "set", "k", tt.raw)

			require.NoError(t, err)
			assert.Equal(t, "k saved\n", out)
			client.AssertExpectations(t)
		})
	}
}

func TestRm(t *testing.T) {
	client := new(mockClient)
	client.On("Remove", "theme", true).Return(true, nil).Once()
	client.On("Remove", "theme", false).Return(false, nil).Once()

	_, err := execute(t, client, "rm", "--remote", "theme")
	require.NoError(t, err)

	_, err = execute(t, client, "rm", "theme")
	assert.Error(t, err)
	client.AssertExpectations(t)
}

func TestKeysAreSorted(t *testing.T) {
	client := new(mockClient)
	client.On("Keys").Return([]string{"widgets", "routines", "activeRoutineId"}, nil)

	out, err := execute(t, client, "keys")

	require.NoError(t, err)
	assert.Equal(t, "activeRoutineId\nroutines\nwidgets\n", out)
}

func TestSync(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		setup   func(c *mockClient)
		wantErr bool
	}{
		{
			name:  "incremental",
			args:  []string{"sync"},
			setup: func(c *mockClient) { c.On("Sync", false).Return(true, nil) },
		},
		{
			name:  "force",
			args:  []string{"sync", "--force"},
			setup: func(c *mockClient) { c.On("ForceSync").Return(true, nil) },
		},
		{
			name:    "failed keys",
			args:    []string{"sync"},
			setup:   func(c *mockClient) { c.On("Sync", false).Return(false, nil) },
			wantErr: true,
		},
		{
			name:    "unavailable",
			args:    []string{"sync"},
			setup:   func(c *mockClient) { c.On("Sync", false).Return(false, errors.New("remote disabled")) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockClient)
			tt.setup(client)

			_, err := execute(t, client, tt.args...)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestDiagnose(t *testing.T) {
	client := new(mockClient)
	client.On("Diagnose").Return([]string{}, nil).Once()
	client.On("Diagnose").Return([]string{"routines: missing locally"}, nil).Once()

	out, err := execute(t, client, "diagnose")
	require.NoError(t, err)
	assert.Equal(t, "healthy\n", out)

	out, err = execute(t, client, "diagnose")
	assert.Error(t, err)
	assert.Contains(t, out, "- routines: missing locally")
}

func TestExportAndImport(t *testing.T) {
	doc := `{"routines":[],"activeRoutineId":"r_1"}`
	path := filepath.Join(t.TempDir(), "routines.json")

	client := new(mockClient)
	client.On("Export").Return([]byte(doc), nil)
	client.On("Import", doc).Return(map[string]any{"routines": float64(0), "activeImported": true}, nil)

	_, err := execute(t, client, "export", path)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(written))

	out, err := execute(t, client, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"activeImported": true`)
	client.AssertExpectations(t)
}

func TestImportMissingFile(t *testing.T) {
	client := new(mockClient)

	_, err := execute(t, client, "import", filepath.Join(t.TempDir(), "missing.json"))

	assert.Error(t, err)
	client.AssertNotCalled(t, "Import", mock.Anything)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "not json", parseValue("not json"))
	assert.Nil(t, parseValue("null"))
}
