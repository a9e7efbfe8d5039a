package grpc

import (
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
)

type IOTServer struct {
	Iot *iot.IOT
	// RateLimiterStore throttles per device queries, nil disables it.
	RateLimiterStore *iot.RateLimiterStore
}

var _ QueryServiceServer = (*IOTServer)(nil)

func (i *IOTServer) GetLimiter(deviceID string) *rate.Limiter {
	if i.RateLimiterStore == nil {
		return nil
	}
	return i.RateLimiterStore.GetLimiter(deviceID)
}

func (i *IOTServer) CheckDeviceLimiter(deviceID string) bool {
	limiter := i.GetLimiter(deviceID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

// NewGrpcServer registers the query service on a new grpc.Server with the
// per device limiter on the device scoped methods.
func (i *IOTServer) NewGrpcServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.UnaryInterceptor(i.CreateRateLimitInterceptor([]string{
		FullMethod(MethodDeviceReadings),
	})))
	server := grpc.NewServer(opts...)
	RegisterQueryServiceServer(server, i)
	return server
}
