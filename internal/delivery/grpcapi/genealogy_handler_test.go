package grpcapi_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/LavaJover/shvark-genealogy-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newClient(t *testing.T) *grpcapi.GenealogyClient {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	publisher := kafka.NoopLedgerPublisher{}
	audit := logger.NewSlogAuditLogger(log)
	m := metrics.NewGenealogyMetrics(prometheus.NewRegistry())
	options := usecase.DefaultGenealogyOptions()

	placement, err := usecase.NewDefaultPlacementUsecase(store, publisher, audit, m, log, options)
	require.NoError(t, err)
	handler := grpcapi.NewGenealogyHandler(
		placement,
		usecase.NewDefaultReconciliationUsecase(store, publisher, audit, m, log, options),
		usecase.NewDefaultVolumeUsecase(store, publisher, audit, m, log, options),
		usecase.NewDefaultGenealogyUsecase(store, options),
		log,
	)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	grpcapi.RegisterGenealogyServer(srv, handler)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return grpcapi.NewGenealogyClient(conn)
}

func call(t *testing.T, c *grpcapi.GenealogyClient, method string, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	in, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	out, err := c.Call(context.Background(), method, in)
	require.NoError(t, err)
	return out
}

func requireCode(t *testing.T, c *grpcapi.GenealogyClient, want codes.Code, method string, fields map[string]interface{}) {
	t.Helper()
	in, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	_, err = c.Call(context.Background(), method, in)
	require.Equal(t, want, status.Code(err), "%v", err)
}

func TestGenealogyHandler_PlacementAndVolume(t *testing.T) {
	c := newClient(t)
	call(t, c, "CreateRoot", map[string]interface{}{"member_id": "R", "status": "active"})

	out := call(t, c, "ResolvePlacement", map[string]interface{}{"sponsor_id": "R", "preferred_side": "right"})
	require.Equal(t, "R", out.Fields["parent_id"].GetStringValue())
	require.Equal(t, "right", out.Fields["position"].GetStringValue())

	out = call(t, c, "PlaceMember", map[string]interface{}{"member_id": "A", "sponsor_id": "R", "preferred_side": "left", "status": "active"})
	member := out.Fields["member"].GetStructValue()
	require.Equal(t, "left", member.Fields["position"].GetStringValue())
	require.Equal(t, "R", member.Fields["parent_id"].GetStringValue())

	out = call(t, c, "CreditVolume", map[string]interface{}{"member_id": "A", "bv": "150.25", "pv": 15, "reference_id": "o-1"})
	require.True(t, out.Fields["applied"].GetBoolValue())
	out = call(t, c, "CreditVolume", map[string]interface{}{"member_id": "A", "bv": "150.25", "reference_id": "o-1"})
	require.False(t, out.Fields["applied"].GetBoolValue())

	out = call(t, c, "GetMember", map[string]interface{}{"member_id": "R"})
	volume := out.Fields["member"].GetStructValue().Fields["volume"].GetStructValue()
	require.Equal(t, "150.25", volume.Fields["left_leg_bv"].GetStringValue())

	out = call(t, c, "Aggregate", map[string]interface{}{"member_id": "R", "fresh": true})
	require.Equal(t, "150.25", out.Fields["bv"].GetStringValue())
	require.Equal(t, float64(2), out.Fields["team_count"].GetNumberValue())

	out = call(t, c, "ClassifyLeg", map[string]interface{}{"sponsor_id": "R", "member_id": "A"})
	require.Equal(t, "left", out.Fields["leg"].GetStringValue())
	require.False(t, out.Fields["orphan"].GetBoolValue())

	out = call(t, c, "ChangeStatus", map[string]interface{}{"member_id": "A", "status": "inactive"})
	require.Equal(t, "inactive", out.Fields["member"].GetStructValue().Fields["status"].GetStringValue())

	out = call(t, c, "RecomputeAll", nil)
	require.Equal(t, float64(0), out.Fields["run"].GetStructValue().Fields["corrections"].GetNumberValue())
}

func TestGenealogyHandler_Queries(t *testing.T) {
	c := newClient(t)
	call(t, c, "CreateRoot", map[string]interface{}{"member_id": "R", "status": "active"})
	for _, id := range []string{"A", "B", "C"} {
		call(t, c, "PlaceMember", map[string]interface{}{"member_id": id, "sponsor_id": "R", "status": "active"})
	}

	out := call(t, c, "GetTree", map[string]interface{}{"member_id": "R", "depth": 2})
	tree := out.Fields["tree"].GetStructValue()
	left := tree.Fields["left"].GetStructValue()
	require.Equal(t, "A", left.Fields["member"].GetStructValue().Fields["member_id"].GetStringValue())
	require.Equal(t, "C", left.Fields["left"].GetStructValue().Fields["member"].GetStructValue().Fields["member_id"].GetStringValue())

	out = call(t, c, "ListLegTeam", map[string]interface{}{"member_id": "R", "leg": "left", "page": 1, "limit": 10})
	require.Len(t, out.Fields["members"].GetListValue().Values, 2)
	require.Equal(t, float64(2), out.Fields["pagination"].GetStructValue().Fields["total_items"].GetNumberValue())

	out = call(t, c, "ListDirects", map[string]interface{}{"sponsor_id": "R", "leg": "right"})
	require.Len(t, out.Fields["members"].GetListValue().Values, 1)
}

func TestGenealogyHandler_ErrorCodes(t *testing.T) {
	c := newClient(t)
	call(t, c, "CreateRoot", map[string]interface{}{"member_id": "R"})

	requireCode(t, c, codes.AlreadyExists, "CreateRoot", map[string]interface{}{"member_id": "S"})
	requireCode(t, c, codes.InvalidArgument, "PlaceMember", map[string]interface{}{"member_id": "A"})
	requireCode(t, c, codes.InvalidArgument, "PlaceMember", map[string]interface{}{"member_id": "A", "sponsor_id": "ghost"})
	requireCode(t, c, codes.InvalidArgument, "ResolvePlacement", map[string]interface{}{"sponsor_id": "R", "preferred_side": "up"})
	requireCode(t, c, codes.NotFound, "GetMember", map[string]interface{}{"member_id": "ghost"})
	requireCode(t, c, codes.InvalidArgument, "ChangeStatus", map[string]interface{}{"member_id": "R", "status": "retired"})
	requireCode(t, c, codes.InvalidArgument, "CreditVolume", map[string]interface{}{"member_id": "R", "bv": "abc"})
	requireCode(t, c, codes.InvalidArgument, "ListDirects", map[string]interface{}{"sponsor_id": "R", "leg": "middle"})
	requireCode(t, c, codes.InvalidArgument, "ListLegTeam", map[string]interface{}{"member_id": "R", "leg": "left", "page": 1 << 40})
	requireCode(t, c, codes.InvalidArgument, "ListLegTeam", map[string]interface{}{"member_id": "R", "leg": "left", "page": 2})
	requireCode(t, c, codes.Unimplemented, "Rebalance", nil)
}
