package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// networkAliases folds venue-specific network spellings onto one canonical
// name per chain. Lookups happen after lower-casing and trimming.
var networkAliases = map[string]string{
	"eth":      "eth",
	"erc20":    "eth",
	"ethereum": "eth",

	"trx":   "trx",
	"trc20": "trx",
	"tron":  "trx",

	"bsc":         "bsc",
	"bep20":       "bsc",
	"bsc (bep20)": "bsc",

	"sol":    "sol",
	"solana": "sol",

	"matic":           "matic",
	"polygon":         "matic",
	"erc20 (polygon)": "matic",

	"arb":      "arb",
	"arbone":   "arb",
	"arbitrum": "arb",

	"op":       "op",
	"optimism": "op",

	"avax":    "avax",
	"avaxc":   "avax",
	"c-chain": "avax",
}

const idMismatchLogCooldown = 30 * time.Minute

// MetadataRegistry is the read-mostly cache of per-venue trading metadata
// plus the two asset-identity maps. Refresh replaces a venue's blob
// wholesale; a failed load keeps the previous blob (stale over absent).
type MetadataRegistry struct {
	src    port.MetadataSource
	venues []string

	mu       sync.RWMutex
	metadata map[string]map[string]model.VenueMetadata // exchange -> symbol -> blob

	idMu     sync.RWMutex
	assetIDs map[string]string            // "exchange:symbol" -> canonical id
	identity map[string]map[string]string // symbol -> exchange -> display name

	ready atomic.Bool

	// StrictIdentity turns off the optimistic "identical" answer when the
	// canonical-id map has never loaded. Set once at wiring time.
	StrictIdentity bool

	cooldownMu  sync.Mutex
	logCooldown map[string]int64 // "symbol:exA:exB" -> last mismatch log, unix ms
}

func NewMetadataRegistry(src port.MetadataSource, venues []string) *MetadataRegistry {
	return &MetadataRegistry{
		src:         src,
		venues:      venues,
		metadata:    make(map[string]map[string]model.VenueMetadata),
		assetIDs:    make(map[string]string),
		identity:    make(map[string]map[string]string),
		logCooldown: make(map[string]int64),
	}
}

// Refresh reloads every configured venue's metadata blob, then the canonical
// asset-id map and the name-identity map. Periodic invocation is the only
// retry mechanism; per-venue failures are absorbed here.
func (r *MetadataRegistry) Refresh(ctx context.Context) {
	for _, venue := range r.venues {
		data, err := r.src.VenueMetadata(ctx, venue)
		if err != nil {
			log.Debug().Str("venue", venue).Err(err).Msg("metadata load failed, keeping cached")
			continue
		}
		r.mu.Lock()
		r.metadata[venue] = data
		r.mu.Unlock()
	}
	r.refreshAssetIDs(ctx)
	r.refreshIdentity(ctx)
}

func (r *MetadataRegistry) refreshAssetIDs(ctx context.Context) {
	m, err := r.src.AssetIDMap(ctx)
	if err != nil {
		r.ready.Store(false)
		log.Debug().Err(err).Msg("asset id map load failed")
		return
	}
	if len(m) == 0 {
		return
	}
	r.idMu.Lock()
	r.assetIDs = m
	r.idMu.Unlock()
	r.ready.Store(true)
}

func (r *MetadataRegistry) refreshIdentity(ctx context.Context) {
	m, err := r.src.IdentityMap(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("identity map load failed")
		return
	}
	r.idMu.Lock()
	r.identity = m
	r.idMu.Unlock()
}

// Ready reports whether the canonical asset-id map has ever been populated.
func (r *MetadataRegistry) Ready() bool {
	return r.ready.Load()
}

// NormalizeNetwork lower-cases, trims and canonicalizes a network name.
// Unknown names pass through normalized.
func NormalizeNetwork(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := networkAliases[lower]; ok {
		return canonical
	}
	return lower
}

// AreIdentical resolves whether symbol on exA and exB denotes the same
// underlying asset. Canonical ids win when both venues have one; an entirely
// empty id map degrades to the permissive default; otherwise display names
// must match exactly.
func (r *MetadataRegistry) AreIdentical(symbol, exA, exB string) bool {
	keyA := strings.ToLower(exA) + ":" + symbol
	keyB := strings.ToLower(exB) + ":" + symbol

	r.idMu.RLock()
	idA, okA := r.assetIDs[keyA]
	idB, okB := r.assetIDs[keyB]
	idsEmpty := len(r.assetIDs) == 0
	identities := r.identity[symbol]
	r.idMu.RUnlock()

	if okA && okB {
		if idA != idB {
			r.noteIDMismatch(symbol, exA, exB, idA, idB)
			return false
		}
		return true
	}

	// No canonical data loaded at all: optimistic default so a cold start
	// does not blank the dashboard, unless strict identity is configured.
	if idsEmpty {
		return !r.StrictIdentity
	}

	if identities == nil {
		return false
	}
	nameA, okA := identities[strings.ToLower(exA)]
	nameB, okB := identities[strings.ToLower(exB)]
	if !okA || !okB {
		return false
	}
	return nameA == nameB
}

func (r *MetadataRegistry) noteIDMismatch(symbol, exA, exB, idA, idB string) {
	key := symbol + ":" + exA + ":" + exB
	now := time.Now().UnixMilli()

	r.cooldownMu.Lock()
	last := r.logCooldown[key]
	if now-last <= idMismatchLogCooldown.Milliseconds() {
		r.cooldownMu.Unlock()
		return
	}
	r.logCooldown[key] = now
	r.cooldownMu.Unlock()

	log.Warn().
		Str("symbol", symbol).
		Str("exchange_a", exA).
		Str("exchange_b", exB).
		Str("id_a", idA).
		Str("id_b", idB).
		Msg("asset id mismatch, pair excluded")
}

func (r *MetadataRegistry) get(exchange, symbol string) (model.VenueMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	venue, ok := r.metadata[exchange]
	if !ok {
		return model.VenueMetadata{}, false
	}
	meta, ok := venue[symbol]
	return meta, ok
}

// FindCommonNetworks returns the source exchange's withdraw-enabled networks
// whose canonical form is deposit-enabled on the target, by the source's
// original network names, cheapest withdraw fee first.
func (r *MetadataRegistry) FindCommonNetworks(sourceEx, targetEx, symbol string) []string {
	sourceMeta, okS := r.get(sourceEx, symbol)
	targetMeta, okT := r.get(targetEx, symbol)
	if !okS || !okT || sourceMeta.Wallet == nil || targetMeta.Wallet == nil {
		return nil
	}
	sourceNets := sourceMeta.Wallet.Networks
	targetNets := targetMeta.Wallet.Networks
	if sourceNets == nil || targetNets == nil {
		return nil
	}

	targetCanonical := make(map[string]struct{}, len(targetNets))
	for name, detail := range targetNets {
		if detail.Deposit {
			targetCanonical[NormalizeNetwork(name)] = struct{}{}
		}
	}

	var common []string
	for name, detail := range sourceNets {
		if !detail.Withdraw {
			continue
		}
		if _, ok := targetCanonical[NormalizeNetwork(name)]; ok {
			common = append(common, name)
		}
	}

	sort.Slice(common, func(i, j int) bool {
		fi := r.NetworkWithdrawFee(sourceEx, symbol, common[i])
		fj := r.NetworkWithdrawFee(sourceEx, symbol, common[j])
		if fi != fj {
			return fi < fj
		}
		return common[i] < common[j]
	})
	return common
}

const defaultTakerFee = 0.001

// TakerFee returns the venue's taker fee for symbol, or 0.001 when unknown.
func (r *MetadataRegistry) TakerFee(exchange, symbol string) float64 {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Fees == nil || meta.Fees.Taker == nil {
		return defaultTakerFee
	}
	return *meta.Fees.Taker
}

// FundingRate returns nil when no futures metadata exists; callers pick
// their own default.
func (r *MetadataRegistry) FundingRate(exchange, symbol string) *float64 {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Futures == nil {
		return nil
	}
	return meta.Futures.FundingRate
}

func (r *MetadataRegistry) NextFundingTime(exchange, symbol string) *int64 {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Futures == nil {
		return nil
	}
	return meta.Futures.NextFundingTime
}

func (r *MetadataRegistry) MaxPositionCost(exchange, symbol string) *float64 {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Futures == nil {
		return nil
	}
	return meta.Futures.MaxCost
}

// NetworkWithdrawFee returns the withdraw fee for one of the venue's
// original network names, 0.0 when unknown.
func (r *MetadataRegistry) NetworkWithdrawFee(exchange, symbol, network string) float64 {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Wallet == nil || meta.Wallet.Networks == nil {
		return 0.0
	}
	detail, ok := meta.Wallet.Networks[network]
	if !ok || detail.WithdrawFee == nil {
		return 0.0
	}
	return *detail.WithdrawFee
}

// WithdrawalEnabled defaults to true when no wallet metadata exists: absent
// constraint data must not hide a detected spread.
func (r *MetadataRegistry) WithdrawalEnabled(exchange, symbol string) bool {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Wallet == nil {
		return true
	}
	return meta.Wallet.Withdraw
}

func (r *MetadataRegistry) DepositEnabled(exchange, symbol string) bool {
	meta, ok := r.get(exchange, symbol)
	if !ok || meta.Wallet == nil {
		return true
	}
	return meta.Wallet.Deposit
}
