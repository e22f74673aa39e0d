package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "genealogy.v1.GenealogyService"

// GenealogyServer is implemented by GenealogyHandler. Requests and responses
// are google.protobuf.Struct documents with snake_case keys.
type GenealogyServer interface {
	CreateRoot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PlaceMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolvePlacement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClassifyLeg(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Aggregate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecomputeAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangeStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreditVolume(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTree(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLegTeam(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDirects(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(GenealogyServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GenealogyServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(GenealogyServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var GenealogyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GenealogyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateRoot", GenealogyServer.CreateRoot),
		unary("PlaceMember", GenealogyServer.PlaceMember),
		unary("ResolvePlacement", GenealogyServer.ResolvePlacement),
		unary("ClassifyLeg", GenealogyServer.ClassifyLeg),
		unary("Aggregate", GenealogyServer.Aggregate),
		unary("RecomputeAll", GenealogyServer.RecomputeAll),
		unary("ChangeStatus", GenealogyServer.ChangeStatus),
		unary("CreditVolume", GenealogyServer.CreditVolume),
		unary("GetMember", GenealogyServer.GetMember),
		unary("GetTree", GenealogyServer.GetTree),
		unary("ListLegTeam", GenealogyServer.ListLegTeam),
		unary("ListDirects", GenealogyServer.ListDirects),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "genealogy/v1/genealogy.proto",
}

func RegisterGenealogyServer(s grpc.ServiceRegistrar, srv GenealogyServer) {
	s.RegisterService(&GenealogyServiceDesc, srv)
}

// GenealogyClient calls GenealogyService methods by name.
type GenealogyClient struct {
	cc grpc.ClientConnInterface
}

func NewGenealogyClient(cc grpc.ClientConnInterface) *GenealogyClient {
	return &GenealogyClient{cc: cc}
}

func (c *GenealogyClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
