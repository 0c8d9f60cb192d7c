package model

type WeatherReport struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Datetime    string  `json:"datetime"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	DewPoint    float64 `json:"dewPoint"`
	StationName string  `json:"stationName"`
	Clouds      string  `json:"clouds"`
}

type PlaceOfInterest struct {
	Lng       float64 `json:"lng"`
	Lat       float64 `json:"lat"`
	Distance  float64 `json:"distance"`
	Name      string  `json:"name"`
	TypeClass string  `json:"typeClass"`
	TypeName  string  `json:"typeName"`
}

type WikipediaSummary struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Summary      string  `json:"summary"`
	Title        string  `json:"title"`
	Elevation    float64 `json:"elevation"`
	Distance     float64 `json:"distance"`
	Rank         int64   `json:"rank"`
	Lang         string  `json:"lang"`
	WikipediaURL string  `json:"wikipediaUrl"`
}
