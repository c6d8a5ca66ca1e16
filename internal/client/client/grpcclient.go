package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	pb "github.com/dmitrijs2005/paykeeper/internal/proto"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultRequestTimeout = 10 * time.Second

type GRPCClient struct {
	endpointURL    string
	requestTimeout time.Duration
	dialOptions    []grpc.DialOption

	conn   *grpc.ClientConn
	client pb.RecordServiceClient

	mu           sync.RWMutex
	initialized  bool
	accessToken  string
	refreshToken string
	user         *User

	listenersMu sync.Mutex
	listeners   map[int]AuthListener
	nextID      int
}

type Option func(*GRPCClient)

// WithRequestTimeout bounds every remote call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *GRPCClient) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithDialOptions appends grpc dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOptions = append(c.dialOptions, opts...) }
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	s.accessToken = access
	s.refreshToken = refresh
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	resp, rerr := s.client.RefreshToken(ctx, wrapperspb.String(refresh))
	if rerr != nil {
		return rerr
	}
	s.setTokens(pb.StringField(resp, pb.FieldAccessToken), pb.StringField(resp, pb.FieldRefreshToken))

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// NewGRPCClient prepares a client for endpointURL. No connection is attempted
// until the first call; use Init to verify reachability.
func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, requestTimeout: defaultRequestTimeout}
	for _, o := range opts {
		o(c)
	}
	if err := c.initGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) initGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOptions...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewRecordServiceClient(conn)
	return nil
}

func (s *GRPCClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

func (s *GRPCClient) Init(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("%w: init: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

func (s *GRPCClient) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *GRPCClient) ready() error {
	if !s.IsInitialized() {
		return ErrNotReady
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, userName string, salt []byte, key []byte) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	req, err := pb.NewMessage(map[string]any{
		pb.FieldUsername: userName,
		pb.FieldSalt:     salt,
		pb.FieldVerifier: key,
	})
	if err != nil {
		return err
	}

	if _, err := s.client.RegisterUser(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.GetSalt(ctx, wrapperspb.String(userName))
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Login(ctx context.Context, userName string, key []byte) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	req, err := pb.NewMessage(map[string]any{
		pb.FieldUsername: userName,
		pb.FieldVerifier: key,
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.setTokens(pb.StringField(resp, pb.FieldAccessToken), pb.StringField(resp, pb.FieldRefreshToken))
	s.setUser(&User{Username: userName})
	return nil
}

// Logout forgets the tokens and notifies auth listeners.
func (s *GRPCClient) Logout() {
	s.setTokens("", "")
	s.setUser(nil)
}

func (s *GRPCClient) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *GRPCClient) setUser(u *User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.notifyAuth(u)
}

func (s *GRPCClient) OnAuthStateChange(fn AuthListener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]AuthListener{}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *GRPCClient) notifyAuth(u *User) {
	s.listenersMu.Lock()
	fns := make([]AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetValue() != pb.PingOK {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) GetAll(ctx context.Context, entity records.Entity) ([]records.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.ListRecords(ctx, wrapperspb.String(entity.String()))
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.ListToRecords(resp), nil
}

func (s *GRPCClient) GetByID(ctx context.Context, entity records.Entity, id string) (records.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	req, err := pb.NewMessage(map[string]any{pb.FieldEntity: entity.String(), pb.FieldID: id})
	if err != nil {
		return nil, err
	}
	resp, err := s.client.GetRecord(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.StructToRecord(resp), nil
}

func (s *GRPCClient) Create(ctx context.Context, entity records.Entity, rec records.Record) (records.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	req, err := recordMessage(entity, rec, map[string]any{})
	if err != nil {
		return nil, err
	}
	resp, err := s.client.CreateRecord(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.StructToRecord(resp), nil
}

func (s *GRPCClient) Update(ctx context.Context, entity records.Entity, id string, rec records.Record, baseVersion int64) (records.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	req, err := recordMessage(entity, rec, map[string]any{pb.FieldID: id, pb.FieldBaseVersion: baseVersion})
	if err != nil {
		return nil, err
	}
	resp, err := s.client.UpdateRecord(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.StructToRecord(resp), nil
}

func (s *GRPCClient) Delete(ctx context.Context, entity records.Entity, id string, baseVersion int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	req, err := pb.NewMessage(map[string]any{
		pb.FieldEntity:      entity.String(),
		pb.FieldID:          id,
		pb.FieldBaseVersion: baseVersion,
	})
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteRecord(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Query(ctx context.Context, entity records.Entity, q records.Query) ([]records.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	params := make(map[string]any, len(q.Params))
	for k, v := range q.Params {
		params[k] = v
	}
	req, err := pb.NewMessage(map[string]any{
		pb.FieldEntity: entity.String(),
		pb.FieldQuery:  q.Name,
		pb.FieldParams: params,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.client.QueryRecords(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return pb.ListToRecords(resp), nil
}

func (s *GRPCClient) BackupUploadURL(ctx context.Context) (string, string, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.GetBackupUploadURL(ctx, &emptypb.Empty{})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return pb.StringField(resp, pb.FieldKey), pb.StringField(resp, pb.FieldURL), nil
}

func recordMessage(entity records.Entity, rec records.Record, extra map[string]any) (*structpb.Struct, error) {
	body, err := pb.RecordToStruct(rec)
	if err != nil {
		return nil, err
	}
	msg, err := pb.NewMessage(extra)
	if err != nil {
		return nil, err
	}
	msg.Fields[pb.FieldEntity] = structpb.NewStringValue(entity.String())
	msg.Fields[pb.FieldRecord] = structpb.NewStructValue(body)
	return msg, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.Aborted, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrConflict, st.Message())
	case codes.InvalidArgument, codes.AlreadyExists, codes.OutOfRange:
		return fmt.Errorf("%w: %s", ErrInvalid, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
