// Package game exposes the flatline engine over gRPC.
//
// Messages are google.protobuf.Struct documents carrying the same JSON
// shapes as the HTTP API, so the service needs no generated stubs. The
// service descriptor and client below follow protoc-gen-go-grpc output.
package game
