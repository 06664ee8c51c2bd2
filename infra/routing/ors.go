package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/fieldsim/core/model"
	corerouting "github.com/kilianp07/fieldsim/core/routing"
)

// ORSConfig configures an ORSBackend.
type ORSConfig struct {
	URL     string        `json:"url"`
	APIKey  string        `json:"api_key"`
	Profile string        `json:"profile"`
	Timeout time.Duration `json:"timeout"`
}

// ORSBackend queries the directions service of openrouteservice.
type ORSBackend struct {
	url     string
	apiKey  string
	profile string
	client  *http.Client
}

func NewORSBackend(cfg ORSConfig) *ORSBackend {
	if cfg.URL == "" {
		cfg.URL = "https://api.openrouteservice.org"
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving-car"
	}
	return &ORSBackend{
		url:     strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
		client:  newHTTPClient(cfg.Timeout),
	}
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance *float64 `json:"distance"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Route returns the driving distance in meters of the first feature.
func (b *ORSBackend) Route(ctx context.Context, from, to model.Coordinate) (float64, error) {
	q := url.Values{}
	if b.apiKey != "" {
		q.Set("api_key", b.apiKey)
	}
	q.Set("start", lonLat(from))
	q.Set("end", lonLat(to))
	u := fmt.Sprintf("%s/v2/directions/%s?%s", b.url, b.profile, q.Encode())
	var resp orsResponse
	if err := getJSON(ctx, b.client, u, &resp); err != nil {
		return 0, err
	}
	if len(resp.Features) == 0 || resp.Features[0].Properties.Summary.Distance == nil {
		return 0, corerouting.ErrNoRoute
	}
	return *resp.Features[0].Properties.Summary.Distance, nil
}
