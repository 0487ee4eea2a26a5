package game

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/platform/requestctx"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// streamBuffer is how many entries a log subscriber may lag behind.
const streamBuffer = 256

// Engine is the engine surface the gRPC service needs.
type Engine interface {
	State() player.State
	Status() engine.Status
	Profile() player.Profile
	Logs() []logfeed.Entry
	FilterLogs(filter string) ([]logfeed.Entry, error)
	SubscribeLogs(listener logfeed.Listener) func()
	LogsDone() <-chan struct{}
	Execute(ctx context.Context, cmd command.Command) (engine.Result, error)
	SetUsername(ctx context.Context, username string) (engine.Result, error)
	UpdateProfile(ctx context.Context, profile player.Profile) (engine.Result, error)
}

// Service implements GameServiceServer on top of an Engine.
type Service struct {
	engine Engine
}

// NewService builds the gRPC game service.
func NewService(e Engine) *Service {
	return &Service{engine: e}
}

// StateResponse is the GetState message.
type StateResponse struct {
	Status  engine.Status  `json:"status"`
	Player  player.State   `json:"player"`
	Profile player.Profile `json:"profile"`
}

// ListLogsRequest is the ListLogs request message.
type ListLogsRequest struct {
	Filter string `json:"filter,omitempty"`
	// Limit keeps only the newest entries when positive.
	Limit int `json:"limit,omitempty"`
}

// ListLogsResponse is the ListLogs response message.
type ListLogsResponse struct {
	Entries []logfeed.Entry `json:"entries"`
}

// ExecuteRequest is the Execute request message.
type ExecuteRequest struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// SetUsernameRequest is the SetUsername request message.
type SetUsernameRequest struct {
	Username string `json:"username"`
}

// UpdateProfileRequest is the UpdateProfile request message.
type UpdateProfileRequest struct {
	Profile player.Profile `json:"profile"`
}

// GetState returns the operator state and profile.
func (s *Service) GetState(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "engine is not configured")
	}
	return respond(StateResponse{
		Status:  s.engine.Status(),
		Player:  s.engine.State(),
		Profile: s.engine.Profile(),
	})
}

// ListLogs returns retained entries, optionally filtered.
func (s *Service) ListLogs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "engine is not configured")
	}
	var req ListLogsRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	entries := s.engine.Logs()
	if strings.TrimSpace(req.Filter) != "" {
		filtered, err := s.engine.FilterLogs(req.Filter)
		if err != nil {
			return nil, apperrors.ToGRPC(apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid filter: "+err.Error(), err))
		}
		entries = filtered
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[len(entries)-req.Limit:]
	}
	return respond(ListLogsResponse{Entries: entries})
}

// Execute runs one command and returns its result.
func (s *Service) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "engine is not configured")
	}
	var req ExecuteRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if strings.TrimSpace(req.Type) == "" {
		return nil, status.Error(codes.InvalidArgument, "command type is required")
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = requestctx.RequestID(ctx)
	}
	result, err := s.engine.Execute(ctx, command.Command{
		Type:        command.Type(req.Type),
		RequestID:   requestID,
		PayloadJSON: req.Payload,
	})
	if err != nil {
		return nil, apperrors.ToGRPC(err)
	}
	return respond(result)
}

// SetUsername renames the operator.
func (s *Service) SetUsername(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "engine is not configured")
	}
	var req SetUsernameRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.engine.SetUsername(ctx, req.Username)
	if err != nil {
		return nil, apperrors.ToGRPC(err)
	}
	return respond(result)
}

// UpdateProfile replaces the profile document.
func (s *Service) UpdateProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "engine is not configured")
	}
	var req UpdateProfileRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.engine.UpdateProfile(ctx, req.Profile)
	if err != nil {
		return nil, apperrors.ToGRPC(err)
	}
	return respond(result)
}

// SubscribeLogs streams entries published after the call starts.
func (s *Service) SubscribeLogs(_ *structpb.Struct, stream LogStream) error {
	if s == nil || s.engine == nil {
		return status.Error(codes.Internal, "engine is not configured")
	}
	ch := logfeed.NewChannel(s.engine.SubscribeLogs, streamBuffer)
	defer ch.Close()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.engine.LogsDone():
			return status.Error(codes.Unavailable, "log feed closed")
		case entry, ok := <-ch.C:
			if !ok {
				if ch.Overflowed() {
					return status.Error(codes.ResourceExhausted, "log subscriber fell behind")
				}
				return status.Error(codes.Unavailable, "log feed closed")
			}
			msg, err := encodeStruct(entry)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func respond(v any) (*structpb.Struct, error) {
	msg, err := encodeStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return msg, nil
}
