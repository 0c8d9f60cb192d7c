package model

// PcInfo：最近邮编摘要（v=邮编，m=距离米）
type PcInfo struct {
	V string  `json:"v"`
	M float64 `json:"m"`
}

// PcRow：最近邮编列表中的一行
type PcRow struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	C        string  `json:"c"`
	Cy       string  `json:"cy"`
	D        string  `json:"d"`
	PC       string  `json:"pc"`
	Lc       string  `json:"lc"`
	W        string  `json:"w"`
	Distance float64 `json:"distance"`
}

func (r PcRow) Info() PcInfo { return PcInfo{V: r.PC, M: r.Distance} }

// PcZone：邮编区记录；Addresses 单独惰性获取
// 约束：Dist 为距查询点的米数；Pn 仅最近一条带有地点名
type PcZone struct {
	PC         string   `json:"pc"`
	Addresses  []string `json:"addresses,omitempty"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Alt        float64  `json:"alt"`
	N          float64  `json:"n"`
	E          float64  `json:"e"`
	C          string   `json:"c"`
	Cy         string   `json:"cy"`
	D          string   `json:"d"`
	Wc         string   `json:"wc"`
	Cs         string   `json:"cs"`
	Lc         string   `json:"lc"`
	W          string   `json:"w"`
	Gr         string   `json:"gr"`
	ModifiedAt string   `json:"modifiedAt"`
	Dist       float64  `json:"dist"`
	Pn         string   `json:"pn,omitempty"`
}

func (z PcZone) HasAddresses() bool { return len(z.Addresses) > 0 }
