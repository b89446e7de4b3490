package vector

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// QdrantRepository implements Repository using Qdrant over gRPC.
type QdrantRepository struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// NewQdrant connects to a Qdrant instance. apiKey may be empty for
// unauthenticated local instances; when set it is attached to every call.
func NewQdrant(ctx context.Context, host string, port int, apiKey string) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if apiKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(apiKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &QdrantRepository{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (r *QdrantRepository) Search(ctx context.Context, vec []float32, collection string, limit int) ([]Document, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vec,
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(resp.Result))
	for i, pt := range resp.Result {
		payload := make(Payload, len(pt.Payload))
		for k, v := range pt.Payload {
			payload[k] = fromValue(v)
		}
		docs[i] = Document{
			ID:      pt.Id.GetUuid(),
			Score:   pt.Score,
			Payload: payload,
		}
	}
	return docs, nil
}

func (r *QdrantRepository) Upsert(ctx context.Context, collection string, points []Point) error {
	pts := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]*pb.Value, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = toValue(v)
		}
		pts[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: p.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: payload,
		}
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points:         pts,
	})
	return err
}

func (r *QdrantRepository) EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error {
	exists, err := r.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: collection})
	if err != nil {
		return fmt.Errorf("qdrant collection check: %w", err)
	}
	if exists.GetResult().GetExists() {
		return nil
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

// Ping verifies the instance is reachable. Any well-formed response counts,
// including one for a collection that does not exist.
func (r *QdrantRepository) Ping(ctx context.Context) error {
	_, err := r.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: "ping"})
	return err
}

func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// fromValue converts a Qdrant payload value into a plain Go value. Strings,
// numbers, bools, and lists of strings cover every field the advisory
// collections store.
func fromValue(v *pb.Value) any {
	switch kind := v.Kind.(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_ListValue:
		out := make([]any, 0, len(kind.ListValue.Values))
		for _, e := range kind.ListValue.Values {
			out = append(out, fromValue(e))
		}
		return out
	default:
		return nil
	}
}

func toValue(v any) *pb.Value {
	switch vv := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: vv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: vv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(vv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: vv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: vv}}
	case []string:
		vals := make([]*pb.Value, len(vv))
		for i, e := range vv {
			vals[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: e}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	case []any:
		vals := make([]*pb.Value, len(vv))
		for i, e := range vv {
			vals[i] = toValue(e)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	default:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}
	}
}

var _ Repository = (*QdrantRepository)(nil)
