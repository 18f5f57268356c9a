package model

// Route is the handling strategy chosen for a query.
type Route string

const (
	RouteWeb       Route = "web"
	RouteRetrieval Route = "retrieval"
	RouteDirect    Route = "direct"
)

// Valid reports whether r is one of the three known routes.
func (r Route) Valid() bool {
	switch r {
	case RouteWeb, RouteRetrieval, RouteDirect:
		return true
	}
	return false
}

func (r Route) String() string {
	return string(r)
}
