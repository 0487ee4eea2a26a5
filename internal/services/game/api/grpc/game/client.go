package game

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed client for the game service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return err
	}
	return decodeStruct(out, resp)
}

// GetState fetches the operator state and profile.
func (c *Client) GetState(ctx context.Context, opts ...grpc.CallOption) (StateResponse, error) {
	var resp StateResponse
	err := c.call(ctx, methodGetState, struct{}{}, &resp, opts...)
	return resp, err
}

// ListLogs fetches retained entries.
func (c *Client) ListLogs(ctx context.Context, req ListLogsRequest, opts ...grpc.CallOption) ([]logfeed.Entry, error) {
	var resp ListLogsResponse
	if err := c.call(ctx, methodListLogs, req, &resp, opts...); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Execute runs a command of typ with payload, which may be nil.
func (c *Client) Execute(ctx context.Context, typ string, payload any, opts ...grpc.CallOption) (engine.Result, error) {
	req := ExecuteRequest{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return engine.Result{}, err
		}
		req.Payload = raw
	}
	var result engine.Result
	err := c.call(ctx, methodExecute, req, &result, opts...)
	return result, err
}

// SetUsername renames the operator.
func (c *Client) SetUsername(ctx context.Context, username string, opts ...grpc.CallOption) (engine.Result, error) {
	var result engine.Result
	err := c.call(ctx, methodSetUsername, SetUsernameRequest{Username: username}, &result, opts...)
	return result, err
}

// UpdateProfile replaces the profile document.
func (c *Client) UpdateProfile(ctx context.Context, profile player.Profile, opts ...grpc.CallOption) (engine.Result, error) {
	var result engine.Result
	err := c.call(ctx, methodUpdateProfile, UpdateProfileRequest{Profile: profile}, &result, opts...)
	return result, err
}

// SubscribeLogs calls fn for every streamed entry until ctx ends or the
// stream fails. A clean end of stream returns nil.
func (c *Client) SubscribeLogs(ctx context.Context, fn func(logfeed.Entry), opts ...grpc.CallOption) error {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], methodSubscribeLogs, opts...)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&structpb.Struct{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var entry logfeed.Entry
		if err := decodeStruct(msg, &entry); err != nil {
			return err
		}
		fn(entry)
	}
}
