package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "paykeeper.RecordService"

const (
	RecordService_Ping_FullMethodName               = "/paykeeper.RecordService/Ping"
	RecordService_RegisterUser_FullMethodName       = "/paykeeper.RecordService/RegisterUser"
	RecordService_GetSalt_FullMethodName            = "/paykeeper.RecordService/GetSalt"
	RecordService_Login_FullMethodName              = "/paykeeper.RecordService/Login"
	RecordService_RefreshToken_FullMethodName       = "/paykeeper.RecordService/RefreshToken"
	RecordService_ListRecords_FullMethodName        = "/paykeeper.RecordService/ListRecords"
	RecordService_GetRecord_FullMethodName          = "/paykeeper.RecordService/GetRecord"
	RecordService_CreateRecord_FullMethodName       = "/paykeeper.RecordService/CreateRecord"
	RecordService_UpdateRecord_FullMethodName       = "/paykeeper.RecordService/UpdateRecord"
	RecordService_DeleteRecord_FullMethodName       = "/paykeeper.RecordService/DeleteRecord"
	RecordService_QueryRecords_FullMethodName       = "/paykeeper.RecordService/QueryRecords"
	RecordService_GetBackupUploadURL_FullMethodName = "/paykeeper.RecordService/GetBackupUploadURL"
)

// RecordServiceClient is the client API for RecordService.
type RecordServiceClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	// RegisterUser takes {username, salt, verifier}.
	RegisterUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetSalt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	// Login takes {username, verifier} and returns {access_token, refresh_token}.
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RefreshToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListRecords(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	// GetRecord takes {entity, id}.
	GetRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// CreateRecord takes {entity, record}.
	CreateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// UpdateRecord takes {entity, id, base_version, record}.
	UpdateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// DeleteRecord takes {entity, id, base_version}.
	DeleteRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// QueryRecords takes {entity, query, params}.
	QueryRecords(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	// GetBackupUploadURL returns {key, url}.
	GetBackupUploadURL(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type recordServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRecordServiceClient(cc grpc.ClientConnInterface) RecordServiceClient {
	return &recordServiceClient{cc}
}

func invoke[T any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*T, error) {
	out := new(T)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordServiceClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, RecordService_Ping_FullMethodName, in, opts)
}

func (c *recordServiceClient) RegisterUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, RecordService_RegisterUser_FullMethodName, in, opts)
}

func (c *recordServiceClient) GetSalt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, RecordService_GetSalt_FullMethodName, in, opts)
}

func (c *recordServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, RecordService_Login_FullMethodName, in, opts)
}

func (c *recordServiceClient) RefreshToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, RecordService_RefreshToken_FullMethodName, in, opts)
}

func (c *recordServiceClient) ListRecords(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, RecordService_ListRecords_FullMethodName, in, opts)
}

func (c *recordServiceClient) GetRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, RecordService_GetRecord_FullMethodName, in, opts)
}

func (c *recordServiceClient) CreateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, RecordService_CreateRecord_FullMethodName, in, opts)
}

func (c *recordServiceClient) UpdateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, RecordService_UpdateRecord_FullMethodName, in, opts)
}

func (c *recordServiceClient) DeleteRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, RecordService_DeleteRecord_FullMethodName, in, opts)
}

func (c *recordServiceClient) QueryRecords(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, RecordService_QueryRecords_FullMethodName, in, opts)
}

func (c *recordServiceClient) GetBackupUploadURL(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, RecordService_GetBackupUploadURL_FullMethodName, in, opts)
}

// RecordServiceServer is the server API for RecordService.
// Implementations must embed UnimplementedRecordServiceServer.
type RecordServiceServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	RegisterUser(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetSalt(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRecords(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRecord(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	QueryRecords(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	GetBackupUploadURL(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	mustEmbedUnimplementedRecordServiceServer()
}

type UnimplementedRecordServiceServer struct{}

func (UnimplementedRecordServiceServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedRecordServiceServer) RegisterUser(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RegisterUser not implemented")
}
func (UnimplementedRecordServiceServer) GetSalt(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSalt not implemented")
}
func (UnimplementedRecordServiceServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedRecordServiceServer) RefreshToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedRecordServiceServer) ListRecords(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListRecords not implemented")
}
func (UnimplementedRecordServiceServer) GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRecord not implemented")
}
func (UnimplementedRecordServiceServer) CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateRecord not implemented")
}
func (UnimplementedRecordServiceServer) UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateRecord not implemented")
}
func (UnimplementedRecordServiceServer) DeleteRecord(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DeleteRecord not implemented")
}
func (UnimplementedRecordServiceServer) QueryRecords(context.Context, *structpb.Struct) (*structpb.ListValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method QueryRecords not implemented")
}
func (UnimplementedRecordServiceServer) GetBackupUploadURL(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBackupUploadURL not implemented")
}
func (UnimplementedRecordServiceServer) mustEmbedUnimplementedRecordServiceServer() {}

func RegisterRecordServiceServer(s grpc.ServiceRegistrar, srv RecordServiceServer) {
	s.RegisterService(&RecordService_ServiceDesc, srv)
}

// unaryHandler adapts one typed server method to grpc.MethodDesc.Handler.
func unaryHandler[Req any](fullMethod string, call func(RecordServiceServer, context.Context, *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecordServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RecordServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var RecordService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unaryHandler(RecordService_Ping_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) { return s.Ping(ctx, in) })},
		{MethodName: "RegisterUser", Handler: unaryHandler(RecordService_RegisterUser_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.RegisterUser(ctx, in) })},
		{MethodName: "GetSalt", Handler: unaryHandler(RecordService_GetSalt_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) { return s.GetSalt(ctx, in) })},
		{MethodName: "Login", Handler: unaryHandler(RecordService_Login_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.Login(ctx, in) })},
		{MethodName: "RefreshToken", Handler: unaryHandler(RecordService_RefreshToken_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) { return s.RefreshToken(ctx, in) })},
		{MethodName: "ListRecords", Handler: unaryHandler(RecordService_ListRecords_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) { return s.ListRecords(ctx, in) })},
		{MethodName: "GetRecord", Handler: unaryHandler(RecordService_GetRecord_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.GetRecord(ctx, in) })},
		{MethodName: "CreateRecord", Handler: unaryHandler(RecordService_CreateRecord_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.CreateRecord(ctx, in) })},
		{MethodName: "UpdateRecord", Handler: unaryHandler(RecordService_UpdateRecord_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.UpdateRecord(ctx, in) })},
		{MethodName: "DeleteRecord", Handler: unaryHandler(RecordService_DeleteRecord_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.DeleteRecord(ctx, in) })},
		{MethodName: "QueryRecords", Handler: unaryHandler(RecordService_QueryRecords_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return s.QueryRecords(ctx, in) })},
		{MethodName: "GetBackupUploadURL", Handler: unaryHandler(RecordService_GetBackupUploadURL_FullMethodName,
			func(s RecordServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) { return s.GetBackupUploadURL(ctx, in) })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "paykeeper.proto",
}
