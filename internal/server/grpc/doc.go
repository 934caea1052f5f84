// Package grpcserver hosts the gRPC server for Palabra: the standard
// grpc.health.v1 service backed by the runtime's storage health, plus
// server reflection.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
