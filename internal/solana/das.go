package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/grandigitals/superteam-academy/core"
)

// DASClient reads credential assets back through a Digital Asset Standard
// endpoint (getAssetsByOwner). The DAS API is plain JSON-RPC over HTTP and
// is not covered by the Solana SDK's typed client, so requests are issued
// directly.
type DASClient struct {
	endpoint    string
	httpClient  *http.Client
	collections map[string]string // collection address -> track name
}

// NewDASClient builds a reader for the given endpoint. The collections map
// is keyed by track name, matching the issuer's configuration.
func NewDASClient(endpoint string, collections map[string]string) *DASClient {
	byAddress := make(map[string]string, len(collections))
	for track, addr := range collections {
		byAddress[addr] = track
	}
	return &DASClient{
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		collections: byAddress,
	}
}

type dasRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type dasResponse struct {
	Result struct {
		Items []dasAsset `json:"items"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type dasAsset struct {
	ID       string `json:"id"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
	Content struct {
		Metadata struct {
			Name       string `json:"name"`
			Attributes []struct {
				TraitType string `json:"trait_type"`
				Value     any    `json:"value"`
			} `json:"attributes"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
}

// GetCredentials lists the academy credentials a wallet holds, filtered to
// the configured track collections. Assets from unrelated collections in
// the same wallet are ignored.
func (c *DASClient) GetCredentials(ctx context.Context, wallet string) ([]core.Credential, error) {
	body, err := json.Marshal(dasRequest{
		JSONRPC: "2.0",
		ID:      "academy",
		Method:  "getAssetsByOwner",
		Params: map[string]any{
			"ownerAddress": wallet,
			"page":         1,
			"limit":        1000,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal das request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build das request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrChainUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: das endpoint returned %d", core.ErrChainUnavailable, res.StatusCode)
	}

	var parsed dasResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode das response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: das error %d: %s", core.ErrChainUnavailable, parsed.Error.Code, parsed.Error.Message)
	}

	var creds []core.Credential
	for _, asset := range parsed.Result.Items {
		track, ok := c.trackFor(asset)
		if !ok {
			continue
		}
		creds = append(creds, c.toCredential(asset, track))
	}
	return creds, nil
}

func (c *DASClient) trackFor(asset dasAsset) (string, bool) {
	for _, g := range asset.Grouping {
		if g.GroupKey != "collection" {
			continue
		}
		if track, ok := c.collections[g.GroupValue]; ok {
			return track, true
		}
	}
	return "", false
}

func (c *DASClient) toCredential(asset dasAsset, track string) core.Credential {
	cred := core.Credential{
		Asset:    asset.ID,
		Track:    track,
		Name:     asset.Content.Metadata.Name,
		ImageURL: asset.Content.Links.Image,
	}
	for _, attr := range asset.Content.Metadata.Attributes {
		switch attr.TraitType {
		case "level":
			cred.Level = int(attrUint(attr.Value))
		case "courses_completed":
			cred.CoursesCompleted = int(attrUint(attr.Value))
		case "total_xp":
			cred.TotalXP = attrUint(attr.Value)
		}
	}
	return cred
}

// attrUint tolerates DAS attribute values arriving as JSON numbers or
// strings, which varies between providers.
func attrUint(v any) uint64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return uint64(t)
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
