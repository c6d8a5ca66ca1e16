package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	pb "github.com/dmitrijs2005/paykeeper/internal/proto"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/dmitrijs2005/paykeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(pb.PingOK), nil
}

func (s *GRPCServer) RegisterUser(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {

	username := strings.TrimSpace(pb.StringField(req, pb.FieldUsername))
	salt, err := pb.BytesField(req, pb.FieldSalt)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	verifier, err := pb.BytesField(req, pb.FieldVerifier)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if username == "" || len(salt) == 0 || len(verifier) == 0 {
		return nil, status.Error(codes.InvalidArgument, "username, salt and verifier are required")
	}

	s.logger.Info(ctx, "Registration request", "username", username)

	result, err := s.users.Register(ctx, username, salt, verifier)
	if err != nil {
		s.logger.Error(ctx, "registration failed", "username", username, "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", username, "id", result.ID)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {

	result, err := s.users.GetSalt(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Bytes(result), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	verifier, err := pb.BytesField(req, pb.FieldVerifier)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tokens, err := s.users.Login(ctx, pb.StringField(req, pb.FieldUsername), verifier)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return tokenMessage(tokens)
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	tokens, err := s.users.RefreshToken(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrRefreshTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
		}
		s.logger.Error(ctx, "token refresh failed", "error", err)
		return nil, toStatus(err)
	}

	return tokenMessage(tokens)
}

func tokenMessage(tokens *services.TokenPair) (*structpb.Struct, error) {
	return pb.NewMessage(map[string]any{
		pb.FieldAccessToken:  tokens.AccessToken,
		pb.FieldRefreshToken: tokens.RefreshToken,
	})
}

func (s *GRPCServer) ListRecords(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.records.List(ctx, userID, req.GetValue())
	if err != nil {
		return nil, s.fail(ctx, "list", err)
	}
	return recordList(items)
}

func (s *GRPCServer) GetRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Get(ctx, userID, pb.StringField(req, pb.FieldEntity), pb.StringField(req, pb.FieldID))
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	return recordMessage(rec)
}

func (s *GRPCServer) CreateRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Create(ctx, userID, pb.StringField(req, pb.FieldEntity), pb.StructToRecord(pb.StructField(req, pb.FieldRecord)))
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}
	return recordMessage(rec)
}

func (s *GRPCServer) UpdateRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Update(ctx, userID,
		pb.StringField(req, pb.FieldEntity),
		pb.StringField(req, pb.FieldID),
		pb.StructToRecord(pb.StructField(req, pb.FieldRecord)),
		pb.IntField(req, pb.FieldBaseVersion))
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}
	return recordMessage(rec)
}

func (s *GRPCServer) DeleteRecord(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	err = s.records.Delete(ctx, userID,
		pb.StringField(req, pb.FieldEntity),
		pb.StringField(req, pb.FieldID),
		pb.IntField(req, pb.FieldBaseVersion))
	if err != nil {
		return nil, s.fail(ctx, "delete", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) QueryRecords(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	q := records.Query{
		Name:   pb.StringField(req, pb.FieldQuery),
		Params: pb.StringMapField(req, pb.FieldParams),
	}
	items, err := s.records.Query(ctx, userID, pb.StringField(req, pb.FieldEntity), q)
	if err != nil {
		return nil, s.fail(ctx, "query", err)
	}
	return recordList(items)
}

func (s *GRPCServer) GetBackupUploadURL(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	key, url, err := s.backups.GetPresignedPutURL(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "backup url", err)
	}

	s.logger.Info(ctx, "Issued backup upload URL", "user", userID, "key", key)
	return pb.NewMessage(map[string]any{pb.FieldKey: key, pb.FieldURL: url})
}

// fail logs unexpected errors and converts err to a status.
func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err)
	} else {
		s.logger.Debug(ctx, op+" rejected", "error", err)
	}
	return st
}

func recordMessage(rec records.Record) (*structpb.Struct, error) {
	out, err := pb.RecordToStruct(rec)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func recordList(items []records.Record) (*structpb.ListValue, error) {
	out, err := pb.RecordsToList(items)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
