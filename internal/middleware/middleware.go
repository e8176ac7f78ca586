package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/database"
	"github.com/graphconnect/graphconnect/internal/logger"
)

// Middleware holds all HTTP middleware
type Middleware struct {
	rdb            *database.Redis
	log            *logger.Logger
	cfg            *config.Config
	trustedProxies []netip.Prefix
}

// New creates a new Middleware instance. rdb may be nil when rate limiting is disabled.
func New(rdb *database.Redis, log *logger.Logger, cfg *config.Config) *Middleware {
	return &Middleware{
		rdb:            rdb,
		log:            log,
		cfg:            cfg,
		trustedProxies: parseTrustedProxies(cfg.Server.TrustedProxies, log),
	}
}

// parseTrustedProxies accepts bare IPs and CIDRs. Invalid entries are skipped.
func parseTrustedProxies(entries []string, log *logger.Logger) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				log.Warn().Err(err).Str("entry", entry).Msg("ignoring invalid trusted proxy")
				continue
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			log.Warn().Err(err).Str("entry", entry).Msg("ignoring invalid trusted proxy")
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range m.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// writeError writes the API error envelope
func writeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
