package model

// LocationInfo：坐标聚合文档
// 约束：各 has* 标记由内容推导，不单独存储；Cached 仅反映地点域是否来自缓存
type LocationInfo struct {
	Matched           bool               `json:"matched"`
	Valid             bool               `json:"valid"`
	HasWeather        bool               `json:"hasWeather"`
	HasPoi            bool               `json:"hasPoi"`
	HasWikiEntries    bool               `json:"hasWikiEntries"`
	HasNearestAddress bool               `json:"hasNearestAddress"`
	HasPCs            bool               `json:"hasPCs"`
	Num               int                `json:"num"`
	Zone              *PcZone            `json:"zone"`
	Places            []SimplePlace      `json:"places"`
	States            []SimplePlace      `json:"states"`
	Surrounding       []PcZone           `json:"surrounding"`
	Cached            bool               `json:"cached"`
	Weather           *WeatherReport     `json:"weather"`
	Poi               []PlaceOfInterest  `json:"poi"`
	Wikipedia         []WikipediaSummary `json:"wikipedia"`
}

// NewLocationInfo：首条邮编区为最近区，其余为周边
func NewLocationInfo(zones []PcZone, places, states []SimplePlace, weather *WeatherReport, poi []PlaceOfInterest, wiki []WikipediaSummary) LocationInfo {
	info := LocationInfo{
		Matched:     len(places) > 0,
		Valid:       len(places) > 0,
		Num:         len(zones),
		Places:      nonNil(places),
		States:      nonNil(states),
		Surrounding: []PcZone{},
		Weather:     weather,
		Poi:         nonNil(poi),
		Wikipedia:   nonNil(wiki),
	}
	if len(zones) > 0 {
		z := zones[0]
		info.Zone = &z
		info.Surrounding = append(info.Surrounding, zones[1:]...)
	}
	info.HasPCs = len(zones) > 0
	info.HasNearestAddress = info.Zone != nil && info.Zone.HasAddresses()
	info.HasWeather = weather != nil
	info.HasPoi = len(poi) > 0
	info.HasWikiEntries = len(wiki) > 0
	return info
}

// GeoTimeInfo：地点 + 时区文档
type GeoTimeInfo struct {
	Place  *PlaceSnapshot `json:"place,omitempty"`
	Time   *TzSnapshot    `json:"time,omitempty"`
	Cached bool           `json:"cached"`
	Valid  bool           `json:"valid"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
