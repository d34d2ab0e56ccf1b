package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	placementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Placement",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"distance_au": &graphql.Field{Type: graphql.Float},
			"speed":       &graphql.Field{Type: graphql.Float},
			"retrograde":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	chartType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Chart",
		Fields: graphql.Fields{
			"name":         &graphql.Field{Type: graphql.String},
			"datetime_utc": &graphql.Field{Type: graphql.String},
			"latitude":     &graphql.Field{Type: graphql.Float},
			"longitude":    &graphql.Field{Type: graphql.Float},
			"julian_day":   &graphql.Field{Type: graphql.Float},
			"placements":   &graphql.Field{Type: graphql.NewList(placementType)},
		},
	})

	phasesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LunarPhases",
		Fields: graphql.Fields{
			"after":         &graphql.Field{Type: graphql.String},
			"new_moon_utc":  &graphql.Field{Type: graphql.String},
			"new_moon_jd":   &graphql.Field{Type: graphql.Float},
			"full_moon_utc": &graphql.Field{Type: graphql.String},
			"full_moon_jd":  &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"chart": &graphql.Field{
				Type:        chartType,
				Description: "Compute a natal chart for an instant and location",
				Args: graphql.FieldConfigArgument{
					"datetime_utc": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"latitude":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"longitude":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"name":         &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["latitude"].(float64)
					lon := p.Args["longitude"].(float64)
					req := domain.ChartRequest{
						DatetimeUTC: p.Args["datetime_utc"].(string),
						Latitude:    &lat,
						Longitude:   &lon,
					}
					if name, ok := p.Args["name"].(string); ok {
						req.Name = &name
					}
					result, err := deps.Charts.BuildChart(p.Context, req)
					if err != nil {
						return nil, err
					}
					return chartToMap(result), nil
				},
			},
			"nextPhases": &graphql.Field{
				Type:        phasesType,
				Description: "Next New Moon and Full Moon after an instant",
				Args: graphql.FieldConfigArgument{
					"after": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					after, err := usecases.ParseDatetimeUTC(p.Args["after"].(string))
					if err != nil {
						return nil, err
					}
					phases, err := deps.Phases.NextPhases(p.Context, after)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"after":         phases.After,
						"new_moon_utc":  phases.NewMoonUTC,
						"new_moon_jd":   phases.NewMoonJD,
						"full_moon_utc": phases.FullMoonUTC,
						"full_moon_jd":  phases.FullMoonJD,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// chartToMap flattens a ChartResult for GraphQL: the ordered placement map
// becomes a list so field resolution stays positional.
func chartToMap(result *domain.ChartResult) map[string]interface{} {
	placements := make([]map[string]interface{}, 0, len(result.Placements))
	for _, np := range result.Placements {
		placements = append(placements, map[string]interface{}{
			"name":        np.Name,
			"longitude":   np.Placement.Longitude,
			"latitude":    np.Placement.Latitude,
			"distance_au": np.Placement.DistanceAU,
			"speed":       np.Placement.Speed,
			"retrograde":  np.Placement.Retrograde,
		})
	}
	m := map[string]interface{}{
		"datetime_utc": result.DatetimeUTC,
		"latitude":     result.Latitude,
		"longitude":    result.Longitude,
		"julian_day":   result.JulianDay,
		"placements":   placements,
	}
	if result.Name != nil {
		m["name"] = *result.Name
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
