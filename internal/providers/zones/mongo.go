// 包 zones：MongoDB 邮编区集合（zones）上的地理检索与地址回写
package zones

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"geo-api/internal/geo"
	"geo-api/internal/metrics"
	"geo-api/internal/model"
	"geo-api/internal/resolver"
)

const (
	name       = "zones"
	collection = "zones"
)

// 投影字段：邮编行只取摘要列，邮编区取完整记录（地址除外由调用方决定）
var (
	rowFields  = []string{"lat", "lng", "pc", "c", "cy", "d", "lc", "w", "distance"}
	zoneFields = []string{"lat", "lng", "alt", "pc", "addresses", "c", "cy", "cs", "d", "lc", "w", "wc", "e", "n", "gr", "distance", "modifiedAt"}
)

// Store：zones 集合需要 2dsphere 索引（$geoNear 前提）
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func New(client *mongo.Client, dbName string) *Store {
	return &Store{client: client, coll: client.Database(dbName).Collection(collection)}
}

func (s *Store) Name() string { return name }

func (s *Store) Heartbeat(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// NearbyZones：半径 km 内由近及远，条数夹取到 [2,1000]
func (s *Store) NearbyZones(ctx context.Context, c geo.Coordinate, km float64, limit int) ([]model.PcZone, error) {
	docs, err := s.aggregate(ctx, NearPipeline(c, km, limit, zoneFields))
	if err != nil {
		return nil, err
	}
	out := make([]model.PcZone, 0, len(docs))
	for _, d := range docs {
		z := ZoneFromDoc(d)
		z.Dist = distance(d, c)
		out = append(out, z)
	}
	return out, nil
}

func (s *Store) NearbyPostcodes(ctx context.Context, c geo.Coordinate, km float64, limit int) ([]model.PcRow, error) {
	docs, err := s.aggregate(ctx, NearPipeline(c, km, limit, rowFields))
	if err != nil {
		return nil, err
	}
	out := make([]model.PcRow, 0, len(docs))
	for _, d := range docs {
		r := RowFromDoc(d)
		r.Distance = distance(d, c)
		out = append(out, r)
	}
	return out, nil
}

// ZoneByCode：按邮编精确查找；不存在返回 ErrEmpty
func (s *Store) ZoneByCode(ctx context.Context, pc string) (model.PcZone, error) {
	start := time.Now()
	metrics.UpstreamRequestsTotal.WithLabelValues(name).Inc()
	var doc bson.M
	err := s.coll.FindOne(ctx, bson.D{{Key: "pc", Value: pc}}).Decode(&doc)
	metrics.UpstreamDurationMs.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.PcZone{}, fmt.Errorf("%s: %w: no zone %q", name, resolver.ErrEmpty, pc)
	}
	if err != nil {
		return model.PcZone{}, s.fail(err)
	}
	return ZoneFromDoc(doc), nil
}

// SaveAddresses：$set addresses（按 pc 匹配首条）
func (s *Store) SaveAddresses(ctx context.Context, pc string, addresses []string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "pc", Value: pc}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "addresses", Value: addresses}}}},
	)
	if err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Store) aggregate(ctx context.Context, p mongo.Pipeline) ([]bson.M, error) {
	start := time.Now()
	metrics.UpstreamRequestsTotal.WithLabelValues(name).Inc()
	defer func() {
		metrics.UpstreamDurationMs.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}()
	cur, err := s.coll.Aggregate(ctx, p)
	if err != nil {
		return nil, s.fail(err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, s.fail(err)
	}
	return docs, nil
}

func (s *Store) fail(err error) error {
	metrics.UpstreamFailTotal.WithLabelValues(name, "unavailable").Inc()
	return fmt.Errorf("%s: %w: %v", name, resolver.ErrUnavailable, err)
}

// NearPipeline：$geoNear（距离写入 distance，单位米）→ $project → $limit
func NearPipeline(c geo.Coordinate, km float64, limit int, fields []string) mongo.Pipeline {
	project := bson.D{{Key: "_id", Value: 0}}
	for _, f := range fields {
		project = append(project, bson.E{Key: f, Value: 1})
	}
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{c.Lng, c.Lat}},
			}},
			{Key: "minDistance", Value: 0},
			{Key: "maxDistance", Value: km * 1000},
			{Key: "spherical", Value: true},
			{Key: "distanceField", Value: "distance"},
		}}},
		{{Key: "$project", Value: project}},
		{{Key: "$limit", Value: resolver.ClampLimit(limit)}},
	}
}

func ZoneFromDoc(d bson.M) model.PcZone {
	return model.PcZone{
		PC:         str(d, "pc"),
		Addresses:  strs(d, "addresses"),
		Lat:        num(d, "lat"),
		Lng:        num(d, "lng"),
		Alt:        num(d, "alt"),
		N:          num(d, "n"),
		E:          num(d, "e"),
		C:          str(d, "c"),
		Cy:         str(d, "cy"),
		D:          str(d, "d"),
		Wc:         str(d, "wc"),
		Cs:         str(d, "cs"),
		Lc:         str(d, "lc"),
		W:          str(d, "w"),
		Gr:         str(d, "gr"),
		ModifiedAt: datetime(d, "modifiedAt"),
		Dist:       num(d, "distance"),
	}
}

func RowFromDoc(d bson.M) model.PcRow {
	return model.PcRow{
		Lat:      num(d, "lat"),
		Lng:      num(d, "lng"),
		C:        str(d, "c"),
		Cy:       str(d, "cy"),
		D:        str(d, "d"),
		PC:       str(d, "pc"),
		Lc:       str(d, "lc"),
		W:        str(d, "w"),
		Distance: num(d, "distance"),
	}
}

// distance：优先 $geoNear 写入的 distance；缺失时（旧索引或投影遗漏）按坐标计算大圆距离
func distance(d bson.M, origin geo.Coordinate) float64 {
	if _, ok := d["distance"]; ok {
		return num(d, "distance")
	}
	_, hasLat := d["lat"]
	_, hasLng := d["lng"]
	if !hasLat || !hasLng {
		return 0
	}
	return origin.DistanceTo(geo.New(num(d, "lat"), num(d, "lng")))
}

// 宽松取值：历史数据中数值列可能以字符串或整型存储
func num(d bson.M, k string) float64 {
	switch v := d[k].(type) {
	case float64:
		return v
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func str(d bson.M, k string) string {
	switch v := d[k].(type) {
	case string:
		return v
	case int32, int64:
		return fmt.Sprint(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func strs(d bson.M, k string) []string {
	a, ok := d[k].(primitive.A)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(a))
	for _, v := range a {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func datetime(d bson.M, k string) string {
	switch v := d[k].(type) {
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case string:
		return v
	}
	return ""
}
