// Package errors provides coded domain errors and their gRPC mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code. Action rejections reuse the same
// strings so transports can surface them unchanged.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Attack rejections
	CodeTargetRequired   Code = "TARGET_REQUIRED"
	CodeTargetNotFound   Code = "TARGET_NOT_FOUND"
	CodeTargetFriendly   Code = "TARGET_FRIENDLY"
	CodeServerOverloaded Code = "SERVER_OVERLOADED"
	CodeServerOffline    Code = "SERVER_OFFLINE"

	// Upgrade and resource rejections
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCES"
	CodeFirewallMaxed         Code = "FIREWALL_MAXED"
	CodeServerOnline          Code = "SERVER_ONLINE"

	// Bot rejections
	CodeBotModelUnknown Code = "BOT_MODEL_UNKNOWN"
	CodeBotFleetFull    Code = "BOT_FLEET_FULL"
	CodeBotNotFound     Code = "BOT_NOT_FOUND"
	CodeBotNotDeployed  Code = "BOT_NOT_DEPLOYED"

	// Identity rejections
	CodeUsernameInvalid Code = "USERNAME_INVALID"
	CodeProfileInvalid  Code = "PROFILE_INVALID"

	// Command envelope errors
	CodeCommandTypeUnknown    Code = "COMMAND_TYPE_UNKNOWN"
	CodeCommandPayloadInvalid Code = "COMMAND_PAYLOAD_INVALID"

	// Engine lifecycle
	CodeNotReady Code = "NOT_READY"
	CodeClosed   Code = "CLOSED"
	CodeInternal Code = "INTERNAL"

	// Storage errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeStorageCorrupt Code = "STORAGE_CORRUPT"

	// Transport errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeFilterInvalid   Code = "FILTER_INVALID"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - bad input
	case CodeTargetRequired,
		CodeBotModelUnknown,
		CodeUsernameInvalid,
		CodeProfileInvalid,
		CodeCommandTypeUnknown,
		CodeCommandPayloadInvalid,
		CodeFilterInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - game state does not allow the action
	case CodeTargetFriendly,
		CodeServerOverloaded,
		CodeServerOffline,
		CodeInsufficientResources,
		CodeFirewallMaxed,
		CodeServerOnline,
		CodeBotFleetFull,
		CodeBotNotDeployed:
		return codes.FailedPrecondition

	// NotFound - referenced thing does not exist
	case CodeTargetNotFound,
		CodeBotNotFound,
		CodeNotFound:
		return codes.NotFound

	case CodeNotReady, CodeClosed:
		return codes.Unavailable

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeRateLimited:
		return codes.ResourceExhausted

	case CodeStorageCorrupt:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}
