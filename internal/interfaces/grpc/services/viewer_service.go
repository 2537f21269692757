// Package services holds the gRPC service implementations.  Messages are
// google.protobuf.Struct values carrying the JSON shapes of the HTTP API, so
// no generated code is involved.
package services

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/pkg/errors"
)

// ViewerServiceName is the fully qualified gRPC service name.
const ViewerServiceName = "vf.viewer.v1.Viewer"

// StructureLoader resolves and parses a structure source.
type StructureLoader interface {
	Load(ctx context.Context, req loader.Request) (loader.Document, *structure.Registry, error)
}

// Workspace is the part of the viewer service exposed over gRPC.
type Workspace interface {
	LoadStructure(ctx context.Context, name, source string, reg *structure.Registry) (viewer.StructureInfo, error)
	Structures() []viewer.StructureInfo
	Click(ctx context.Context, k structure.ResidueKey, mods selection.Modifiers) error
	Select(ctx context.Context, spec string) error
	State() (viewer.StateView, error)
	Scene(ctx context.Context) (viewer.SceneView, error)
	Interactions() ([]interaction.Readout, error)
	Flush() bool
}

// ViewerServer is the handler type of ViewerServiceDesc.
type ViewerServer interface {
	ListStructures(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	LoadStructure(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetScene(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetInteractions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Click(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Select(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ViewerService implements ViewerServer over the viewer workspace.
type ViewerService struct {
	loader StructureLoader
	viewer Workspace
	logger logging.Logger
}

var _ ViewerServer = (*ViewerService)(nil)

func NewViewerService(l StructureLoader, v Workspace, logger logging.Logger) *ViewerService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ViewerService{loader: l, viewer: v, logger: logger}
}

func (s *ViewerService) ListStructures(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(map[string]interface{}{"structures": s.viewer.Structures()})
}

func (s *ViewerService) LoadStructure(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req loader.Request
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	doc, reg, err := s.loader.Load(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	source := doc.Location
	if source == "" {
		source = string(doc.Source)
	}
	info, err := s.viewer.LoadStructure(ctx, doc.Name, source, reg)
	if err != nil {
		return nil, toStatus(err)
	}
	s.viewer.Flush()
	return encode(map[string]interface{}{"structure": info, "document": doc})
}

func (s *ViewerService) GetState(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.state()
}

func (s *ViewerService) GetScene(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.viewer.Flush()
	sc, err := s.viewer.Scene(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(sc)
}

func (s *ViewerService) GetInteractions(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.viewer.Flush()
	edges, err := s.viewer.Interactions()
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{"edges": edges})
}

type clickRequest struct {
	Residue string `json:"residue"`
	Ctrl    bool   `json:"ctrl"`
	Shift   bool   `json:"shift"`
}

func (s *ViewerService) Click(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req clickRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	k, err := structure.ParseResidueKey(req.Residue)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.viewer.Click(ctx, k, selection.Modifiers{Ctrl: req.Ctrl, Shift: req.Shift}); err != nil {
		return nil, toStatus(err)
	}
	return s.state()
}

type selectRequest struct {
	Residues string `json:"residues"`
}

func (s *ViewerService) Select(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req selectRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := s.viewer.Select(ctx, req.Residues); err != nil {
		return nil, toStatus(err)
	}
	return s.state()
}

// state flushes the pending rebuild so the reply reflects the scene.
func (s *ViewerService) state() (*structpb.Struct, error) {
	s.viewer.Flush()
	st, err := s.viewer.State()
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(st)
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversion
// ─────────────────────────────────────────────────────────────────────────────

func decode(in *structpb.Struct, dst interface{}) error {
	if in == nil {
		return nil
	}
	raw, err := protojson.Marshal(in)
	if err == nil {
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus maps an AppError onto the gRPC code matching its HTTP status.
func toStatus(err error) error {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "internal server error")
	}
	var code codes.Code
	switch appErr.HTTPStatus() {
	case 400, 422:
		code = codes.InvalidArgument
	case 403:
		code = codes.PermissionDenied
	case 404:
		code = codes.NotFound
	case 409:
		code = codes.FailedPrecondition
	case 502, 503:
		code = codes.Unavailable
	case 504:
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, appErr.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// Service descriptor
// ─────────────────────────────────────────────────────────────────────────────

// ViewerServiceDesc describes the service for grpc.Server.RegisterService.
var ViewerServiceDesc = grpc.ServiceDesc{
	ServiceName: ViewerServiceName,
	HandlerType: (*ViewerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListStructures", newEmpty, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.ListStructures(ctx, in.(*emptypb.Empty))
		}),
		unary("LoadStructure", newStruct, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.LoadStructure(ctx, in.(*structpb.Struct))
		}),
		unary("GetState", newEmpty, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.GetState(ctx, in.(*emptypb.Empty))
		}),
		unary("GetScene", newEmpty, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.GetScene(ctx, in.(*emptypb.Empty))
		}),
		unary("GetInteractions", newEmpty, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.GetInteractions(ctx, in.(*emptypb.Empty))
		}),
		unary("Click", newStruct, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.Click(ctx, in.(*structpb.Struct))
		}),
		unary("Select", newStruct, func(s ViewerServer, ctx context.Context, in proto.Message) (interface{}, error) {
			return s.Select(ctx, in.(*structpb.Struct))
		}),
	},
	Streams: []grpc.StreamDesc{},
}

func newEmpty() proto.Message  { return &emptypb.Empty{} }
func newStruct() proto.Message { return &structpb.Struct{} }

func unary(name string, newReq func() proto.Message, call func(ViewerServer, context.Context, proto.Message) (interface{}, error)) grpc.MethodDesc {
	fullMethod := "/" + ViewerServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ViewerServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(proto.Message))
			})
		},
	}
}
