package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"bizit/internal/geo/domain"
)

const defaultKakaoEndpoint = "https://dapi.kakao.com/v2/local/search/address.json"

// KakaoGeocoder géocode les adresses via l'API de recherche locale Kakao
type KakaoGeocoder struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewKakaoGeocoder crée un géocodeur. endpoint vide = API publique.
func NewKakaoGeocoder(apiKey, endpoint string) *KakaoGeocoder {
	if endpoint == "" {
		endpoint = defaultKakaoEndpoint
	}
	return &KakaoGeocoder{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type kakaoResponse struct {
	Documents []struct {
		X       string `json:"x"`
		Y       string `json:"y"`
		Address *struct {
			HCode             string `json:"h_code"`
			Region3DepthHName string `json:"region_3depth_h_name"`
			Region3DepthName  string `json:"region_3depth_name"`
		} `json:"address"`
	} `json:"documents"`
}

// Geocode retourne les coordonnées et le district administratif du premier résultat
func (g *KakaoGeocoder) Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error) {
	u := g.endpoint + "?" + url.Values{"query": {address}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "build kakao request")
	}
	req.Header.Set("Authorization", "KakaoAK "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "kakao request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read kakao response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("kakao API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed kakaoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "parse kakao response")
	}
	if len(parsed.Documents) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrAddressNotFound, address)
	}

	first := parsed.Documents[0]
	lat, err := strconv.ParseFloat(first.Y, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid latitude %q", first.Y)
	}
	lng, err := strconv.ParseFloat(first.X, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid longitude %q", first.X)
	}

	result := &domain.GeocodeResult{Coordinate: domain.Coordinate{Lat: lat, Lng: lng}}
	if first.Address != nil {
		result.AdminCode = first.Address.HCode
		result.DongName = first.Address.Region3DepthHName
		if result.DongName == "" {
			result.DongName = first.Address.Region3DepthName
		}
	}
	return result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
