package application

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	"rcs360-sync-layer/internal/ports"
)

// SyncService runs the shop counts query and composes the companion-app
// redirect for the embedded index route.
type SyncService struct {
	adminAPI     ports.AdminAPI
	logger       zerolog.Logger
	companionURL string
}

// NewSyncService creates a sync service targeting the companion app base URL.
func NewSyncService(adminAPI ports.AdminAPI, logger zerolog.Logger, companionURL string) *SyncService {
	return &SyncService{
		adminAPI:     adminAPI,
		logger:       logger,
		companionURL: companionURL,
	}
}

// FetchShopCounts proxies the Admin API counts query for a session.
func (s *SyncService) FetchShopCounts(ctx context.Context, session *domain.Session) (*domain.ShopSnapshot, error) {
	return s.adminAPI.FetchShopCounts(ctx, session)
}

// ComposeRedirect builds the companion-app URL for a merchant landing on the
// embedded index. It never fails: when the counts query cannot be served the
// merchant is still redirected, carrying the shop from the inbound query
// string and zeroed counts rather than an error page.
func (s *SyncService) ComposeRedirect(ctx context.Context, session *domain.Session, shopParam, hostParam string) string {
	var snapshot *domain.ShopSnapshot

	if session != nil {
		fetched, err := s.adminAPI.FetchShopCounts(ctx, session)
		if err == nil {
			snapshot = fetched
		} else {
			s.logger.Warn().Err(err).Str("shop", session.Shop).Msg("Counts query failed, redirecting with fallback data")
		}
	}

	if snapshot == nil {
		shopDomain := shopParam
		if shopDomain == "" {
			shopDomain = domain.UnknownShopDomain
		}
		snapshot = &domain.ShopSnapshot{
			ShopName:   domain.UnknownShopName,
			ShopDomain: shopDomain,
		}
	}
	if snapshot.ShopDomain == "" {
		snapshot.ShopDomain = shopParam
	}
	if snapshot.ShopDomain == "" {
		snapshot.ShopDomain = domain.UnknownShopDomain
	}

	return s.buildRedirectURL(snapshot, hostParam)
}

// buildRedirectURL encodes every value once itself and once more through
// query serialization; the companion app decodes twice.
func (s *SyncService) buildRedirectURL(snapshot *domain.ShopSnapshot, hostParam string) string {
	target, err := url.Parse(s.companionURL)
	if err != nil {
		// The base URL comes from config and is validated at startup; a parse
		// failure here means a raw string fallback is the best remaining option.
		s.logger.Error().Err(err).Str("url", s.companionURL).Msg("Invalid companion app URL")
		return s.companionURL
	}

	params := url.Values{}
	params.Set("shop", url.QueryEscape(snapshot.ShopDomain))
	params.Set("shopName", url.QueryEscape(snapshot.ShopName))
	params.Set("shopDomain", url.QueryEscape(snapshot.ShopDomain))
	params.Set("customerCount", url.QueryEscape(strconv.Itoa(snapshot.Counts.Customers)))
	params.Set("productCount", url.QueryEscape(strconv.Itoa(snapshot.Counts.Products)))
	params.Set("collectionCount", url.QueryEscape(strconv.Itoa(snapshot.Counts.Collections)))
	params.Set("abandonedCartCount", url.QueryEscape(strconv.Itoa(snapshot.Counts.AbandonedCheckouts)))

	if hostParam != "" {
		params.Set("host", url.QueryEscape(padHost(hostParam)))
	}

	target.RawQuery = params.Encode()
	return target.String()
}

// padHost pads the opaque host handshake parameter to a multiple of 4 with
// '=' so the downstream consumer can base64-decode it.
func padHost(host string) string {
	if rem := len(host) % 4; rem != 0 {
		return host + strings.Repeat("=", 4-rem)
	}
	return host
}
