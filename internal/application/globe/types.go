package globe

// CityMetric is the number of active workers in one city
type CityMetric struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Workers int64  `json:"workers"`
}

// AggregateResponse is the payload served on the data endpoint.
// TotalCities and TotalCountries are derived from Cities.
type AggregateResponse struct {
	Cities         []CityMetric `json:"cities"`
	TotalActive    int64        `json:"total_active"`
	TotalCities    int          `json:"total_cities"`
	TotalCountries int          `json:"total_countries"`
	TasksPerSecond float64      `json:"tasks_per_second"`
}

// Extractor names, used as log and metric tags
const (
	ExtractorLiveCities     = "live_cities"
	ExtractorTotalActive    = "total_active"
	ExtractorTasksPerSecond = "tasks_per_second"
)
