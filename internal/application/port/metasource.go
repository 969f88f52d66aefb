package port

import (
	"context"

	"spreadscan/internal/domain/model"
)

// MetadataSource pulls the externally-published metadata blobs the registry
// refreshes from. A missing key or unparseable blob is an error; the registry
// keeps its previously cached data in that case.
type MetadataSource interface {
	// VenueMetadata returns symbol -> metadata for one exchange.
	VenueMetadata(ctx context.Context, exchange string) (map[string]model.VenueMetadata, error)
	// AssetIDMap returns "exchange:symbol" -> canonical asset id.
	AssetIDMap(ctx context.Context) (map[string]string, error)
	// IdentityMap returns symbol -> exchange -> display name.
	IdentityMap(ctx context.Context) (map[string]map[string]string, error)
}
