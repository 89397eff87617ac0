package crawler

import (
	"strings"

	"go.uber.org/zap"

	"github.com/user/gh-search-crawler/internal/domain"
)

// ProxySelector picks one proxy from candidates, or from its own fallback list
// when candidates is empty.
type ProxySelector interface {
	Select(candidates []string) string
}

// NormalizeRequest validates raw and resolves the proxy for the whole run.
func NormalizeRequest(raw domain.CrawlRequest, selector ProxySelector, logger *zap.Logger) (domain.SearchRequest, error) {
	if raw.Keywords == nil {
		return domain.SearchRequest{}, &domain.MissingFieldError{Field: "keywords"}
	}
	if len(raw.Keywords) == 0 {
		return domain.SearchRequest{}, &domain.InvalidValueError{Field: "keywords", Value: "[]", Reason: "at least one keyword is required"}
	}
	for _, kw := range raw.Keywords {
		if strings.TrimSpace(kw) == "" {
			return domain.SearchRequest{}, &domain.InvalidValueError{Field: "keywords", Value: kw, Reason: "keywords must not be blank"}
		}
	}

	var proxy string
	if len(raw.Proxies) == 0 {
		proxy = selector.Select(nil)
		logger.Info("no proxies found, using existing ones", zap.String("proxy", proxy))
	} else {
		proxy = selector.Select(raw.Proxies)
		logger.Debug("selected proxy from request", zap.String("proxy", proxy), zap.Int("candidates", len(raw.Proxies)))
	}

	if raw.Type == "" {
		return domain.SearchRequest{}, &domain.MissingFieldError{Field: "type"}
	}
	entityType := domain.EntityType(raw.Type)
	if !entityType.Valid() {
		return domain.SearchRequest{}, &domain.InvalidValueError{Field: "type", Value: raw.Type, Reason: "must be one of Repositories, Issues, Wikis"}
	}

	return domain.SearchRequest{
		Keywords: append([]string(nil), raw.Keywords...),
		Proxy:    proxy,
		Type:     entityType,
	}, nil
}
