package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
	"rcs360-sync-layer/internal/ports"
)

const defaultAPIVersion = "2025-04"

// shopCountsQuery is the single read query this app issues against the Admin
// GraphQL API.
const shopCountsQuery = `
query {
  shop {
    name
    myshopifyDomain
  }
  customersCount {
    count
  }
  productsCount {
    count
  }
  collectionsCount {
    count
  }
  abandonedCheckoutsCount {
    count
  }
}
`

// AdminClient issues Admin GraphQL queries on behalf of an offline session.
type AdminClient struct {
	httpClient *http.Client
	apiVersion string
	endpoint   string // overrides the per-shop URL when set
	logger     zerolog.Logger
}

// NewAdminClient creates an Admin API client with default transport settings.
func NewAdminClient(logger zerolog.Logger) ports.AdminAPI {
	return NewAdminClientWithOptions(&http.Client{Timeout: 15 * time.Second}, defaultAPIVersion, "", logger)
}

// NewAdminClientWithOptions creates an Admin API client with an explicit HTTP
// client, API version and optional endpoint override.
func NewAdminClientWithOptions(httpClient *http.Client, apiVersion string, endpoint string, logger zerolog.Logger) ports.AdminAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &AdminClient{
		httpClient: httpClient,
		apiVersion: apiVersion,
		endpoint:   endpoint,
		logger:     logger,
	}
}

type countField struct {
	Count int `json:"count"`
}

type countsShop struct {
	Name            string `json:"name"`
	MyshopifyDomain string `json:"myshopifyDomain"`
}

type countsData struct {
	Shop                    *countsShop `json:"shop"`
	CustomersCount          *countField `json:"customersCount"`
	ProductsCount           *countField `json:"productsCount"`
	CollectionsCount        *countField `json:"collectionsCount"`
	AbandonedCheckoutsCount *countField `json:"abandonedCheckoutsCount"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type countsEnvelope struct {
	Data   *countsData    `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchShopCounts runs the fixed counts query and validates the response
// envelope. It never substitutes defaults for a failed call; recovery belongs
// to the redirect composer.
func (c *AdminClient) FetchShopCounts(ctx context.Context, session *domain.Session) (*domain.ShopSnapshot, error) {
	body, err := json.Marshal(map[string]string{"query": shopCountsQuery})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encoding counts query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL(session.Shop), bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "building counts request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "shop counts query transport failed")
	}
	defer resp.Body.Close()

	var envelope countsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "decoding shop counts response")
	}

	if envelope.Data == nil {
		return nil, apperrors.New(apperrors.CodeDependency, "no data in shop counts response")
	}
	if len(envelope.Errors) > 0 {
		return nil, apperrors.New(apperrors.CodeDependency, "shop counts query failed: %s", envelope.Errors[0].Message)
	}
	if envelope.Data.Shop == nil {
		return nil, apperrors.New(apperrors.CodeDependency, "no shop data in counts response")
	}

	snapshot := &domain.ShopSnapshot{
		ShopName:   envelope.Data.Shop.Name,
		ShopDomain: envelope.Data.Shop.MyshopifyDomain,
		Counts: domain.ShopCounts{
			Customers:          countOrZero(envelope.Data.CustomersCount),
			Products:           countOrZero(envelope.Data.ProductsCount),
			Collections:        countOrZero(envelope.Data.CollectionsCount),
			AbandonedCheckouts: countOrZero(envelope.Data.AbandonedCheckoutsCount),
		},
	}
	if snapshot.ShopName == "" {
		snapshot.ShopName = domain.UnknownShopName
	}

	c.logger.Debug().
		Str("shop", session.Shop).
		Int("customers", snapshot.Counts.Customers).
		Int("products", snapshot.Counts.Products).
		Int("collections", snapshot.Counts.Collections).
		Int("abandonedCheckouts", snapshot.Counts.AbandonedCheckouts).
		Msg("Fetched shop counts")

	return snapshot, nil
}

func (c *AdminClient) queryURL(shop string) string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
}

func countOrZero(field *countField) int {
	if field == nil {
		return 0
	}
	return field.Count
}
