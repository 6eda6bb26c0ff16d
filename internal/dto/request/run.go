package request

type CreateRunRequest struct {
	BusName       string  `json:"bus_name" validate:"required,min=2,max=100"`
	BusNumber     string  `json:"bus_number" validate:"required,min=2,max=20"`
	RouteFrom     string  `json:"route_from" validate:"required,min=2,max=100"`
	RouteTo       string  `json:"route_to" validate:"required,min=2,max=100"`
	DepartureTime string  `json:"departure_time" validate:"required"` // RFC3339
	ArrivalTime   string  `json:"arrival_time" validate:"required"`   // RFC3339
	PricePerSeat  float64 `json:"price_per_seat" validate:"required,gt=0"`
	SeatRows      int     `json:"seat_rows" validate:"required,min=1,max=30"`
	SeatCols      int     `json:"seat_cols" validate:"required,min=1,max=10"`
}

type UpdateRunRequest struct {
	BusName       string  `json:"bus_name" validate:"required,min=2,max=100"`
	BusNumber     string  `json:"bus_number" validate:"required,min=2,max=20"`
	RouteFrom     string  `json:"route_from" validate:"required,min=2,max=100"`
	RouteTo       string  `json:"route_to" validate:"required,min=2,max=100"`
	DepartureTime string  `json:"departure_time" validate:"required"`
	ArrivalTime   string  `json:"arrival_time" validate:"required"`
	PricePerSeat  float64 `json:"price_per_seat" validate:"required,gt=0"`
}
