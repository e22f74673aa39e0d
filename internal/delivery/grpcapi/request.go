package grpcapi

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func requiredString(in *structpb.Struct, key string) (string, error) {
	v := stringField(in, key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

func boolField(in *structpb.Struct, key string) bool {
	return in.GetFields()[key].GetBoolValue()
}

// intField accepts a JSON number or a numeric string.
func intField(in *structpb.Struct, key string) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return int(k.NumberValue), nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(k.StringValue)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
		}
		return n, nil
	case *structpb.Value_NullValue:
		return 0, nil
	}
	return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
}

// int32Field is intField limited to [0, MaxInt32].
func int32Field(in *structpb.Struct, key string) (int32, error) {
	n, err := intField(in, key)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s is out of range", key)
	}
	return int32(n), nil
}

// decimalField keeps string amounts exact; numbers go through float64.
func decimalField(in *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return decimal.Zero, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(k.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(k.NumberValue), nil
	case *structpb.Value_NullValue:
		return decimal.Zero, nil
	}
	return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a number or a decimal string", key)
}

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}
