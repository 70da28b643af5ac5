package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"bizit/internal/geo/domain"
)

const defaultCommercialEndpoint = "http://apis.data.go.kr/B553077/api/open/sdsc2/storeListInRadius"

// ErrCommercialAPI réponse inexploitable de l'API des commerces (clé invalide, corps absent)
var ErrCommercialAPI = errors.New("commercial district API error")

// CommercialClient interroge l'API data.go.kr des commerces dans un rayon
type CommercialClient struct {
	serviceKey   string
	endpoint     string
	industryCode string
	pageSize     int
	client       *http.Client
}

// NewCommercialClient crée un client. La clé est utilisée décodée, comme fournie par le portail.
func NewCommercialClient(serviceKey, endpoint, industryCode string) *CommercialClient {
	if endpoint == "" {
		endpoint = defaultCommercialEndpoint
	}
	if decoded, err := url.QueryUnescape(serviceKey); err == nil {
		serviceKey = decoded
	}
	return &CommercialClient{
		serviceKey:   serviceKey,
		endpoint:     endpoint,
		industryCode: industryCode,
		pageSize:     500,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

type commercialResponse struct {
	Body *struct {
		Items json.RawMessage `json:"items"`
	} `json:"body"`
}

type commercialItem struct {
	Lat json.Number `json:"lat"`
	Lon json.Number `json:"lon"`
}

// StoresInRadius retourne les coordonnées des commerces du secteur dans le rayon (mètres)
func (c *CommercialClient) StoresInRadius(ctx context.Context, center domain.Coordinate, radius int) ([]domain.Coordinate, error) {
	params := url.Values{
		"serviceKey": {c.serviceKey},
		"pageNo":     {"1"},
		"numOfRows":  {strconv.Itoa(c.pageSize)},
		"radius":     {strconv.Itoa(radius)},
		"cx":         {strconv.FormatFloat(center.Lng, 'f', -1, 64)},
		"cy":         {strconv.FormatFloat(center.Lat, 'f', -1, 64)},
		"type":       {"json"},
	}
	if c.industryCode != "" {
		params.Set("indsSclsCd", c.industryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "build commercial request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "commercial request radius %d", radius)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read commercial response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: radius %d status %d: %s", ErrCommercialAPI, radius, resp.StatusCode, truncate(string(body), 200))
	}

	// une clé invalide renvoie un document XML même avec type=json
	trimmed := bytes.TrimSpace(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "xml") || bytes.HasPrefix(trimmed, []byte("<")) {
		return nil, fmt.Errorf("%w: radius %d xml response: %s", ErrCommercialAPI, radius, truncate(string(trimmed), 200))
	}

	var parsed commercialResponse
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return nil, eris.Wrapf(err, "parse commercial response radius %d", radius)
	}
	if parsed.Body == nil {
		return nil, fmt.Errorf("%w: radius %d: missing body", ErrCommercialAPI, radius)
	}

	items, err := decodeItems(parsed.Body.Items)
	if err != nil {
		return nil, eris.Wrapf(err, "decode items radius %d", radius)
	}

	coords := make([]domain.Coordinate, 0, len(items))
	for _, item := range items {
		lat, errLat := item.Lat.Float64()
		lng, errLng := item.Lon.Float64()
		if errLat != nil || errLng != nil {
			continue
		}
		coords = append(coords, domain.Coordinate{Lat: lat, Lng: lng})
	}
	return coords, nil
}

// decodeItems accepte une liste, un objet seul ou une valeur vide
func decodeItems(raw json.RawMessage) ([]commercialItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var one commercialItem
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []commercialItem{one}, nil
	}
	var many []commercialItem
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return nil, err
	}
	return many, nil
}
