// Package shield decides how a visit to a link is resolved: straight redirect,
// timed interstitial, adaptive content, rotated host or block.
//
// Resolve is a pure function of the link, the request signals and the resolver
// configuration. The only side effect is a warning log for unusable stored configs.
package shield

import (
	"LinkHub-Backend/internal/domain"
	"errors"
	"hash/fnv"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DecisionKind is the action the page-serving layer must take.
type DecisionKind string

const (
	KindPassThrough     DecisionKind = "pass_through"
	KindDelay           DecisionKind = "delay"
	KindAdaptiveContent DecisionKind = "adaptive_content"
	KindRotateDomain    DecisionKind = "rotate_domain"
	KindBlock           DecisionKind = domain.DecisionBlocked
)

// ReasonBotDetected is the block reason for visits classified as automated.
const ReasonBotDetected = "bot-detected"

// Variant selection policies
const (
	VariantByWindow  = "window"
	VariantByVisitor = "visitor"
)

// Rotation strategies
const (
	RotateRoundRobin  = "round-robin"
	RotateVisitorHash = "visitor-hash"
)

// Signals are the per-request inputs of the resolver.
type Signals struct {
	UserAgent            string
	Referrer             string
	ElapsedSincePageLoad time.Duration
	IsLikelyBot          bool
	VisitorID            string
	At                   time.Time
}

// Decision is the resolver output. Kind selects the action; the remaining fields
// carry its payload and the rendering directives of the enabled features.
type Decision struct {
	Kind           DecisionKind `json:"kind"`
	DestinationURL string       `json:"destination_url,omitempty"`
	TimerMs        int          `json:"timer_ms,omitempty"`
	VariantID      *int         `json:"variant_id,omitempty"`
	AlternateHost  string       `json:"alternate_host,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Obfuscate      bool         `json:"obfuscate,omitempty"`
	BotSuspected   bool         `json:"bot_suspected,omitempty"`
}

// Config holds the resolver policy.
type Config struct {
	DomainPool       []string
	RotationStrategy string
	RotationWindow   time.Duration
	AdaptiveVariants int
	AdaptivePolicy   string
	AdaptiveWindow   time.Duration
	Location         *time.Location
}

// Resolver applies the shield policy of a link to a visit.
type Resolver struct {
	cfg Config
	log *zap.Logger
}

// NewResolver creates a resolver, filling in defaults for unset policy fields.
func NewResolver(cfg Config, log *zap.Logger) *Resolver {
	if cfg.RotationWindow <= 0 {
		cfg.RotationWindow = time.Hour
	}
	if cfg.AdaptiveWindow <= 0 {
		cfg.AdaptiveWindow = time.Hour
	}
	if cfg.AdaptiveVariants <= 0 {
		cfg.AdaptiveVariants = 1
	}
	if cfg.RotationStrategy == "" {
		cfg.RotationStrategy = RotateRoundRobin
	}
	if cfg.AdaptivePolicy == "" {
		cfg.AdaptivePolicy = VariantByWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	pool := make([]string, 0, len(cfg.DomainPool))
	for _, h := range cfg.DomainPool {
		if h != "" {
			pool = append(pool, h)
		}
	}
	cfg.DomainPool = pool

	return &Resolver{cfg: cfg, log: log}
}

// Resolve returns the decision for a visit to link.
func (r *Resolver) Resolve(link *domain.Link, sig Signals) Decision {
	dest := link.Destination()
	if !link.Shielded() {
		return PassThrough(dest)
	}

	cfg, err := storedConfig(link)
	if err != nil {
		// Fail open: a broken config must not take the link offline
		r.log.Warn("shield config unusable, passing through",
			zap.Error(&domain.ConfigurationError{LinkID: link.ID, Err: err}),
			zap.String("slug", link.Slug))
		return PassThrough(dest)
	}

	features := cfg.EffectiveFeatures()

	if features[domain.FeatureAIDetection] && sig.IsLikelyBot {
		return Block(ReasonBotDetected)
	}

	d := Decision{
		DestinationURL: dest,
		Obfuscate:      features[domain.FeatureJSObfuscation],
		BotSuspected:   features[domain.FeatureBasicDetection] && sig.IsLikelyBot,
	}
	if features[domain.FeatureAdaptiveContent] {
		v := r.variant(link.Slug, sig)
		d.VariantID = &v
	}
	if features[domain.FeatureDomainRotation] {
		d.AlternateHost = r.alternateHost(sig)
	}

	switch {
	case features[domain.FeatureTimer]:
		d.Kind = KindDelay
		d.TimerMs = cfg.Timer()
	case d.AlternateHost != "":
		d.Kind = KindRotateDomain
	case d.VariantID != nil:
		d.Kind = KindAdaptiveContent
	default:
		d.Kind = KindPassThrough
	}
	return d
}

// PassThrough builds a decision that redirects straight to dest.
func PassThrough(dest string) Decision {
	return Decision{Kind: KindPassThrough, DestinationURL: dest}
}

// Block builds a decision that refuses the visit.
func Block(reason string) Decision {
	return Decision{Kind: KindBlock, Reason: reason}
}

var errMissingConfig = errors.New("shield enabled without config")

func storedConfig(link *domain.Link) (domain.ShieldConfig, error) {
	if link.ShieldConfig == nil || *link.ShieldConfig == "" {
		return domain.ShieldConfig{}, errMissingConfig
	}
	return domain.ParseShieldConfig(*link.ShieldConfig)
}

// variant picks the adaptive content variant. Within one window every visit sees
// the same variant; with the visitor policy a visitor always sees the same one.
func (r *Resolver) variant(slug string, sig Signals) int {
	key := slug + "|w" + strconv.FormatInt(r.bucket(sig.At, r.cfg.AdaptiveWindow), 10)
	if r.cfg.AdaptivePolicy == VariantByVisitor && sig.VisitorID != "" {
		key = slug + "|v" + sig.VisitorID
	}
	return int(hash64(key) % uint64(r.cfg.AdaptiveVariants))
}

func (r *Resolver) alternateHost(sig Signals) string {
	n := uint64(len(r.cfg.DomainPool))
	if n == 0 {
		return ""
	}
	if r.cfg.RotationStrategy == RotateVisitorHash && sig.VisitorID != "" {
		return r.cfg.DomainPool[hash64(sig.VisitorID)%n]
	}
	b := r.bucket(sig.At, r.cfg.RotationWindow)
	if b < 0 {
		b = -b
	}
	return r.cfg.DomainPool[uint64(b)%n]
}

// bucket numbers the window containing t, counted in the configured zone.
func (r *Resolver) bucket(t time.Time, window time.Duration) int64 {
	local := t.In(r.cfg.Location)
	_, offset := local.Zone()
	shifted := local.Unix() + int64(offset)
	return floorDiv(shifted, int64(window/time.Second))
}

func floorDiv(a, b int64) int64 {
	if b <= 0 {
		b = 1
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
