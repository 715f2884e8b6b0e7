package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/tphakala/ebird-recommend/internal/api/middleware"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/lifelist"
)

// Query defaults.
const (
	DefaultRadiusKm       = 50
	DefaultDays           = 14
	DefaultTop            = 20
	DefaultChecklistLimit = 10
)

const detailAPIKeyRequired = "eBird API key required. Pass the X-EBird-Api-Token header."

type hotspotsQuery struct {
	Lat    float64 `query:"lat" validate:"latitude"`
	Lng    float64 `query:"lng" validate:"longitude"`
	Radius float64 `query:"radius" validate:"gte=1,lte=500"`
}

type notableQuery struct {
	Lat    float64 `query:"lat" validate:"latitude"`
	Lng    float64 `query:"lng" validate:"longitude"`
	Radius float64 `query:"radius" validate:"gte=1,lte=500"`
	Days   int     `query:"days" validate:"min=1,max=30"`
}

type hotspotDetailQuery struct {
	LocID string `param:"loc_id" validate:"required"`
	Days  int    `query:"days" validate:"min=1,max=30"`
	Limit int    `query:"limit" validate:"min=1,max=200"`
}

// lifeListItem is one species the caller has already seen.
type lifeListItem struct {
	ScientificName string `json:"scientific_name" validate:"required"`
	CommonName     string `json:"common_name"`
	SpeciesCode    string `json:"species_code"`
	LastSeen       string `json:"last_seen" validate:"lifedate"`
}

type recommendRequest struct {
	LifeList []lifeListItem `json:"life_list" validate:"dive"`
	Lat      *float64       `json:"lat" validate:"required,latitude"`
	Lng      *float64       `json:"lng" validate:"required,longitude"`
	Radius   float64        `json:"radius" validate:"gte=1,lte=500"`
	Days     int            `json:"days" validate:"min=1,max=30"`
	Top      int            `json:"top" validate:"min=1,max=200"`
	Lifer    string         `json:"lifer" validate:"omitempty,oneof=all yes no"`
	Notable  string         `json:"notable" validate:"omitempty,oneof=all yes no"`
}

// lifeList converts the request entries into a life list.
func (r *recommendRequest) lifeList() *lifelist.List {
	entries := make([]lifelist.Entry, 0, len(r.LifeList))
	for _, item := range r.LifeList {
		e := lifelist.Entry{
			ScientificName: item.ScientificName,
			CommonName:     item.CommonName,
			SpeciesCode:    item.SpeciesCode,
		}
		if t, ok := lifelist.ParseDate(item.LastSeen); ok {
			e.LastSeen = t
		}
		entries = append(entries, e)
	}
	return lifelist.FromEntries(entries)
}

// healthz reports liveness only, it never calls the provider.
func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) hotspots(c echo.Context) error {
	q := hotspotsQuery{Radius: DefaultRadiusKm}
	if err := echo.QueryParamsBinder(c).
		MustFloat64("lat", &q.Lat).
		MustFloat64("lng", &q.Lng).
		Float64("radius", &q.Radius).
		BindError(); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	f, err := s.finderFor(c)
	if err != nil {
		return err
	}
	hotspots, err := f.Hotspots(c.Request().Context(), q.Lat, q.Lng, q.Radius)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(hotspots))
}

func (s *Server) notable(c echo.Context) error {
	q := notableQuery{Radius: DefaultRadiusKm, Days: DefaultDays}
	if err := echo.QueryParamsBinder(c).
		MustFloat64("lat", &q.Lat).
		MustFloat64("lng", &q.Lng).
		Float64("radius", &q.Radius).
		Int("days", &q.Days).
		BindError(); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	f, err := s.finderFor(c)
	if err != nil {
		return err
	}
	obs, err := f.Notable(c.Request().Context(), q.Lat, q.Lng, q.Radius, q.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(obs))
}

func (s *Server) recommend(c echo.Context) error {
	f, err := s.finderFor(c)
	if err != nil {
		return err
	}

	req := recommendRequest{
		Radius:  DefaultRadiusKm,
		Days:    DefaultDays,
		Top:     DefaultTop,
		Lifer:   string(finder.FilterAll),
		Notable: string(finder.FilterAll),
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lifer, err := finder.ParseFilterMode(req.Lifer)
	if err != nil {
		return err
	}
	notable, err := finder.ParseFilterMode(req.Notable)
	if err != nil {
		return err
	}

	recs, err := f.Recommend(c.Request().Context(), finder.Query{
		Lat:      *req.Lat,
		Lng:      *req.Lng,
		RadiusKm: req.Radius,
		Days:     req.Days,
		Top:      req.Top,
		Lifer:    lifer,
		Notable:  notable,
		Seen:     req.lifeList(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(recs))
}

func (s *Server) hotspotDetail(c echo.Context) error {
	q := hotspotDetailQuery{
		LocID: c.Param("loc_id"),
		Days:  DefaultDays,
		Limit: DefaultChecklistLimit,
	}
	if err := echo.QueryParamsBinder(c).
		Int("days", &q.Days).
		Int("limit", &q.Limit).
		BindError(); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	f, err := s.finderFor(c)
	if err != nil {
		return err
	}
	detail, err := f.HotspotDetail(c.Request().Context(), q.LocID, q.Days, q.Limit)
	if err != nil {
		return err
	}
	detail.Notable = nonNil(detail.Notable)
	detail.Recent = nonNil(detail.Recent)
	detail.Checklists = nonNil(detail.Checklists)
	return c.JSON(http.StatusOK, detail)
}

// finderFor resolves the caller's API key and returns its pooled finder.
func (s *Server) finderFor(c echo.Context) (*finder.Finder, error) {
	apiKey := c.Request().Header.Get(mw.HeaderAPIToken)
	if apiKey == "" {
		apiKey = s.config.APIKey
	}
	if apiKey == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, detailAPIKeyRequired)
	}
	return s.pool.get(apiKey)
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
