package grpcserver

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client of the key/value service.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates a client over an open connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, fullMethod(method), in, out)
}

// Get returns the cached value of key.
func (c *Client) Get(ctx context.Context, key string) (any, error) {
	out := &structpb.Value{}
	if err := c.invoke(ctx, "Get", wrapperspb.String(key), out); err != nil {
		return nil, err
	}
	return out.AsInterface(), nil
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key string, value any) error {
	v, err := toValue(value)
	if err != nil {
		return fmt.Errorf("couldn't encode value: %w", err)
	}

	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"key":   structpb.NewStringValue(key),
		"value": v,
	}}
	return c.invoke(ctx, "Set", req, &wrapperspb.BoolValue{})
}

// Remove deletes key, and its remote row when remote is set.
func (c *Client) Remove(ctx context.Context, key string, remote bool) (bool, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"key":    structpb.NewStringValue(key),
		"remote": structpb.NewBoolValue(remote),
	}}

	out := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, "Remove", req, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Keys lists the local keys.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	return c.strings(ctx, "Keys")
}

// Sync pulls the remote table.
func (c *Client) Sync(ctx context.Context, force bool) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, "Sync", wrapperspb.Bool(force), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// ForceSync reconciles both sides.
func (c *Client) ForceSync(ctx context.Context) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, "ForceSync", &emptypb.Empty{}, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Diagnose returns the issues of the critical keys.
func (c *Client) Diagnose(ctx context.Context) ([]string, error) {
	return c.strings(ctx, "Diagnose")
}

// Export returns the routines document as JSON.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, "Export", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return json.Marshal(out.AsMap())
}

// Import applies a JSON routines document and returns the import result.
func (c *Client) Import(ctx context.Context, document []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(document, &fields); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	out := &structpb.Struct{}
	if err := c.invoke(ctx, "Import", req, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func (c *Client) strings(ctx context.Context, method string) ([]string, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, method, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	items := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		items = append(items, v.GetStringValue())
	}
	return items, nil
}

// toValue converts any JSON serializable value, structpb only takes the generic JSON shapes.
func toValue(value any) (*structpb.Value, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}
