// 包 model：各数据域的值对象（缓存与响应共用同一 JSON 形态）
package model

// PlaceSnapshot：坐标最近的地名与行政层级
// 约束：按 5 位小数坐标缓存且不过期；ZoneName 可作为时区查询的提示
type PlaceSnapshot struct {
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Name        string  `json:"name"`
	Toponym     string  `json:"toponym"`
	Fcode       string  `json:"fcode"`
	Distance    float64 `json:"distance"`
	Pop         uint32  `json:"pop"`
	AdminName   string  `json:"adminName"`
	Region      string  `json:"region"`
	CC          string  `json:"cc,omitempty"`
	CountryName string  `json:"countryName"`
	ZoneName    string  `json:"zoneName,omitempty"`
	PC          *PcInfo `json:"pc,omitempty"`
}

// SimplePlace：名称 + 坐标的精简视图
type SimplePlace struct {
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
	Name string  `json:"name"`
}

func (p PlaceSnapshot) Simple() SimplePlace {
	return SimplePlace{Lat: p.Lat, Lng: p.Lng, Name: p.Name}
}

func (p PlaceSnapshot) Places() []SimplePlace { return []SimplePlace{p.Simple()} }

// States：行政区、区域、国家三级（均使用地点坐标）
func (p PlaceSnapshot) States() []SimplePlace {
	return []SimplePlace{
		{Lat: p.Lat, Lng: p.Lng, Name: p.AdminName},
		{Lat: p.Lat, Lng: p.Lng, Name: p.Region},
		{Lat: p.Lat, Lng: p.Lng, Name: p.CountryName},
	}
}
