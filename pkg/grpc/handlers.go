package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
)

const (
	FieldID       = "id"
	FieldDistrict = "district"
	FieldState    = "state"
	FieldLimit    = "limit"
)

var requiredStringValidator = z.String().Min(1).Required()

// requiredString reads a non-empty string field of req.
func requiredString(req *structpb.Struct, field string) (string, error) {
	v, ok := req.GetFields()[field]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "validation error: %s is required", field)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "validation error: %s must be a string", field)
	}
	value := s.StringValue
	if issues := requiredStringValidator.Validate(&value); issues != nil {
		return "", status.Errorf(codes.InvalidArgument, "validation error: %s %v", field, issues)
	}
	return value, nil
}

// limit follows the REST rule: absent or negative values use the default,
// fractions are truncated and large values are capped.
func limit(req *structpb.Struct) (int, error) {
	v, ok := req.GetFields()[FieldLimit]
	if !ok {
		return common.DefaultReadingsLimit, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "validation error: %s must be a number", FieldLimit)
	}
	f := math.Trunc(n.NumberValue)
	if math.IsNaN(f) || n.NumberValue < 0 {
		return common.DefaultReadingsLimit, nil
	}
	return int(min(f, float64(common.MaxReadingsLimit))), nil
}

func toStatus(method string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return status.Error(codes.NotFound, "installation not found")
	}
	common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Query failed",
		zap.String("method", method),
		zap.Error(err),
	)
	return status.Error(codes.Internal, fmt.Sprintf("failed to %s", method))
}

func respond(method string, v any, err error) (*structpb.Value, error) {
	if err != nil {
		return nil, toStatus(method, err)
	}
	out, err := EncodeValue(v)
	if err != nil {
		return nil, toStatus(method, err)
	}
	return out, nil
}

func (s *IOTServer) ListInstallations(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	installations, err := s.Iot.Installation.ListInstallations(ctx)
	return respond(MethodListInstallations, installations, err)
}

func (s *IOTServer) GetInstallation(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	id, err := requiredString(req, FieldID)
	if err != nil {
		return nil, err
	}
	inst, err := s.Iot.Installation.GetInstallation(ctx, id)
	return respond(MethodGetInstallation, inst, err)
}

func (s *IOTServer) ListInstallationsByDistrict(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	district, err := requiredString(req, FieldDistrict)
	if err != nil {
		return nil, err
	}
	installations, err := s.Iot.Installation.ListInstallationsByDistrict(ctx, district)
	return respond(MethodListInstallationsByDistrict, installations, err)
}

func (s *IOTServer) ListInstallationsByState(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	state, err := requiredString(req, FieldState)
	if err != nil {
		return nil, err
	}
	installations, err := s.Iot.Installation.ListInstallationsByState(ctx, state)
	return respond(MethodListInstallationsByState, installations, err)
}

func (s *IOTServer) LatestReadings(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	n, err := limit(req)
	if err != nil {
		return nil, err
	}
	readings, err := s.Iot.Reading.LatestReadings(ctx, n)
	return respond(MethodLatestReadings, readings, err)
}

func (s *IOTServer) DeviceReadings(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	deviceID, err := requiredString(req, FieldDeviceID)
	if err != nil {
		return nil, err
	}
	n, err := limit(req)
	if err != nil {
		return nil, err
	}
	readings, err := s.Iot.Reading.DeviceReadings(ctx, deviceID, n)
	return respond(MethodDeviceReadings, readings, err)
}
