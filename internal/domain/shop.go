package domain

import (
	"regexp"
	"time"
)

// UnknownShopName is used when the commerce platform does not return a shop name.
const UnknownShopName = "Unknown Shop"

// UnknownShopDomain is the fallback identity when no shop can be determined.
const UnknownShopDomain = "unknown.myshopify.com"

// shopDomainPattern matches a *.myshopify.com storefront domain.
var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether s is a well-formed myshopify.com domain.
func ValidShopDomain(s string) bool {
	return shopDomainPattern.MatchString(s)
}

// AuthUserID derives the stable auth-store identifier for a shop domain.
func AuthUserID(shopDomain string) string {
	return "shop:" + shopDomain
}

// ShopCounts holds the four entity counts mirrored from the Admin API.
// The zero value is the atomic fallback used when the upstream query fails.
type ShopCounts struct {
	Customers          int `json:"customerCount"`
	Products           int `json:"productCount"`
	Collections        int `json:"collectionCount"`
	AbandonedCheckouts int `json:"abandonedCartCount"`
}

// ShopSnapshot is the result of one shop counts query.
type ShopSnapshot struct {
	ShopName   string
	ShopDomain string
	Counts     ShopCounts
}

// FeatureFlags are per-shop feature toggles, all disabled until a human
// flips them on the stored profile.
type FeatureFlags struct {
	AbandonedCartExport bool `bson:"abandonedCartExport" json:"abandonedCartExport"`
	SinchIntegration    bool `bson:"sinchIntegration" json:"sinchIntegration"`
	ScheduledSync       bool `bson:"scheduledSync" json:"scheduledSync"`
}

// RawCounts is the nested copy of the counts kept under the last-response snapshot.
type RawCounts struct {
	CustomerCount      int `bson:"customerCount" json:"customerCount"`
	ProductCount       int `bson:"productCount" json:"productCount"`
	CollectionCount    int `bson:"collectionCount" json:"collectionCount"`
	AbandonedCartCount int `bson:"abandonedCartCount" json:"abandonedCartCount"`
}

// LastResponse records the most recent upstream fetch verbatim.
type LastResponse struct {
	RawCounts RawCounts `bson:"rawCounts" json:"rawCounts"`
	FetchedAt time.Time `bson:"fetchedAt" json:"fetchedAt"`
}

// ShopProfile is the one-per-shop sync document stored in the shops collection.
type ShopProfile struct {
	ShopDomain         string       `bson:"shopDomain" json:"shopDomain"`
	ShopName           string       `bson:"shopName" json:"shopName"`
	Host               string       `bson:"host" json:"host"`
	CustomerCount      int          `bson:"customerCount" json:"customerCount"`
	ProductCount       int          `bson:"productCount" json:"productCount"`
	CollectionCount    int          `bson:"collectionCount" json:"collectionCount"`
	AbandonedCartCount int          `bson:"abandonedCartCount" json:"abandonedCartCount"`
	Source             string       `bson:"source" json:"source"`
	LastSyncedAt       time.Time    `bson:"lastSyncedAt" json:"lastSyncedAt"`
	InstalledAt        time.Time    `bson:"installedAt" json:"installedAt"`
	LastDBUpdateAt     time.Time    `bson:"lastDatabaseUpdateAt" json:"lastDatabaseUpdateAt"`
	LastResponse       LastResponse `bson:"lastShopifyResponse" json:"lastShopifyResponse"`
	Features           FeatureFlags `bson:"features" json:"features"`
	PlanName           string       `bson:"planName" json:"planName"`
	ExportHistory      []string     `bson:"exportHistory" json:"exportHistory"`
	ScheduledTasks     []string     `bson:"scheduledTasks" json:"scheduledTasks"`
	ShopOwnerEmail     string       `bson:"shopOwnerEmail" json:"shopOwnerEmail"`
	DataHash           string       `bson:"dataHash" json:"dataHash"`
}

// AuthUser is the auth-store identity derived from a shop domain.
// Created lazily on first token issuance and never deleted.
type AuthUser struct {
	UID          string
	Email        string
	CustomClaims map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
