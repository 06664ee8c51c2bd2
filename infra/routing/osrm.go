package routing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/fieldsim/core/model"
	corerouting "github.com/kilianp07/fieldsim/core/routing"
)

// OSRMConfig configures an OSRMBackend.
type OSRMConfig struct {
	URL     string        `json:"url"`
	Profile string        `json:"profile"`
	Timeout time.Duration `json:"timeout"`
}

// OSRMBackend queries the route service of an OSRM server.
type OSRMBackend struct {
	url     string
	profile string
	client  *http.Client
}

func NewOSRMBackend(cfg OSRMConfig) *OSRMBackend {
	if cfg.URL == "" {
		cfg.URL = "http://router.project-osrm.org"
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	return &OSRMBackend{
		url:     strings.TrimSuffix(cfg.URL, "/"),
		profile: cfg.Profile,
		client:  newHTTPClient(cfg.Timeout),
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// Route returns the driving distance in meters of the first route.
func (b *OSRMBackend) Route(ctx context.Context, from, to model.Coordinate) (float64, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=false", b.url, b.profile, lonLat(from), lonLat(to))
	var resp osrmResponse
	if err := getJSON(ctx, b.client, url, &resp); err != nil {
		return 0, err
	}
	if resp.Code != "" && resp.Code != "Ok" {
		return 0, fmt.Errorf("%w: osrm code %s", corerouting.ErrNoRoute, resp.Code)
	}
	if len(resp.Routes) == 0 {
		return 0, corerouting.ErrNoRoute
	}
	return resp.Routes[0].Distance, nil
}
