// 包 geo：坐标值类型与近似缓存键
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DefaultAltitude：未提供海拔时的哨兵值；[0,10] 视为“未指定”，序列化时省略
const DefaultAltitude = 10.0

var ErrInvalidCoordinate = errors.New("geo: invalid coordinate")

// Coordinate：WGS84 坐标（不可变值类型，按请求创建）
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Alt float64 `json:"alt"`
}

func New(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng, Alt: DefaultAltitude}
}

func NewWithAltitude(lat, lng, alt float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng, Alt: alt}
}

// Validate：纬度 [-90,90]，经度 [-180,180]，拒绝 NaN/Inf
func (c Coordinate) Validate() error {
	for _, v := range []float64{c.Lat, c.Lng, c.Alt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: not a finite number", ErrInvalidCoordinate)
		}
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat %v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng %v out of range", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// HasAltitude：海拔读数落在中性区间之外才视为真实值
func (c Coordinate) HasAltitude() bool { return c.Alt < 0 || c.Alt > DefaultAltitude }

// String：上游查询参数格式 lat,lng[,alt]
func (c Coordinate) String() string {
	s := formatPlain(c.Lat) + "," + formatPlain(c.Lng)
	if c.HasAltitude() {
		s += "," + formatPlain(c.Alt)
	}
	return s
}

// Parse：解析 "lat,lng[,alt]"；少于两个数值或越界返回 ErrInvalidCoordinate
func Parse(loc string) (Coordinate, error) {
	parts := strings.Split(loc, ",")
	nums := make([]float64, 0, 3)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, p)
		}
		nums = append(nums, f)
	}
	if len(nums) < 2 {
		return Coordinate{}, fmt.Errorf("%w: need lat,lng", ErrInvalidCoordinate)
	}
	c := New(nums[0], nums[1])
	if len(nums) > 2 {
		c.Alt = nums[2]
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Point：orb 点（经度在前）
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lng, c.Lat} }

// DistanceTo：大圆距离（米）
func (c Coordinate) DistanceTo(o Coordinate) float64 {
	return orbgeo.DistanceHaversine(c.Point(), o.Point())
}

func formatPlain(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
