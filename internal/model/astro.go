package model

// AstroData：星历窗口（start..end，当前时刻 time，采样间隔 intervalSecs）
// 约束：AgeSecs 仅在缓存命中时计算（当前时间 - Time）
type AstroData struct {
	Start        int64          `json:"start"`
	Time         int64          `json:"time"`
	End          int64          `json:"end"`
	IntervalSecs uint32         `json:"intervalSecs"`
	Sun          *SunData       `json:"sun"`
	Ascendant    *AscendantData `json:"ascendant"`
	Moon         *MoonData      `json:"moon"`
	AgeSecs      *int64         `json:"ageSecs,omitempty"`
}

type AscendantData struct {
	Lng       float64   `json:"lng"`
	Positions []float64 `json:"positions"`
}

type MoonPhase struct {
	Num uint8 `json:"num"`
	Ts  int64 `json:"ts"`
}

type MoonData struct {
	Lng       float64     `json:"lng"`
	Positions []float64   `json:"positions"`
	Phase     uint8       `json:"phase"`
	SunAngle  float64     `json:"sun_angle"`
	Waxing    bool        `json:"waxing"`
	Phases    []MoonPhase `json:"phases"`
}

type SunData struct {
	Lng       float64   `json:"lng"`
	Positions []float64 `json:"positions"`
	Rise      *int64    `json:"rise"`
	Set       *int64    `json:"set"`
	Mc        *int64    `json:"mc"`
	Ic        *int64    `json:"ic"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}
