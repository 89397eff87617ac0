package crawler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/gh-search-crawler/internal/domain"
)

// Markup the extractors depend on.
const (
	resultEntrySelector   = "div.f4.text-normal"
	resultClickAttr       = "data-hydro-click"
	languageItemSelector  = "li.d-inline"
	languageLabelSelector = "span.text-gray-dark.text-bold.mr-1"
)

// ResultsParser turns a search results page into its ranked results.
type ResultsParser interface {
	ParseResults(page string) (*ResultSet, error)
}

// LanguagesParser turns a repository page into its language breakdown.
type LanguagesParser interface {
	ParseLanguages(page string) (map[string]float64, error)
}

// ResultSet maps rank to result, remembering the order ranks were first seen.
type ResultSet struct {
	order  []int
	byRank map[int]domain.SearchResult
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{byRank: make(map[int]domain.SearchResult)}
}

// Put stores r under r.Rank. A repeated rank replaces the earlier result but
// keeps its first position.
func (s *ResultSet) Put(r domain.SearchResult) {
	if _, ok := s.byRank[r.Rank]; !ok {
		s.order = append(s.order, r.Rank)
	}
	s.byRank[r.Rank] = r
}

// Get returns the result stored under rank.
func (s *ResultSet) Get(rank int) (domain.SearchResult, bool) {
	r, ok := s.byRank[rank]
	return r, ok
}

// Len returns the number of distinct ranks stored.
func (s *ResultSet) Len() int { return len(s.order) }

// Results returns the results in encounter order.
func (s *ResultSet) Results() []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(s.order))
	for _, rank := range s.order {
		out = append(out, s.byRank[rank])
	}
	return out
}

// GitHubExtractor implements both parsers against GitHub's markup.
type GitHubExtractor struct{}

type hydroClick struct {
	Payload map[string]any `json:"payload"`
}

// ParseResults reads the click-tracking JSON carried on every result entry's
// anchor. Any malformed entry fails the whole page.
func (GitHubExtractor) ParseResults(page string) (*ResultSet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, &domain.ParseError{Context: "search results page", Err: err}
	}

	set := NewResultSet()
	var parseErr error
	doc.Find(resultEntrySelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		result, err := parseResultEntry(s)
		if err != nil {
			parseErr = &domain.ParseError{Context: fmt.Sprintf("search result entry %d", i+1), Err: err}
			return false
		}
		set.Put(result)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return set, nil
}

func parseResultEntry(s *goquery.Selection) (domain.SearchResult, error) {
	anchor := s.Find("a").First()
	if anchor.Length() == 0 {
		return domain.SearchResult{}, errors.New("entry has no anchor")
	}
	raw, ok := anchor.Attr(resultClickAttr)
	if !ok {
		return domain.SearchResult{}, fmt.Errorf("anchor has no %s attribute", resultClickAttr)
	}

	var click hydroClick
	if err := json.Unmarshal([]byte(raw), &click); err != nil {
		return domain.SearchResult{}, fmt.Errorf("invalid %s JSON: %w", resultClickAttr, err)
	}
	if click.Payload == nil {
		return domain.SearchResult{}, errors.New("click data has no payload object")
	}

	rank, err := resultPosition(click.Payload)
	if err != nil {
		return domain.SearchResult{}, err
	}
	url, err := resultURL(click.Payload)
	if err != nil {
		return domain.SearchResult{}, err
	}

	return domain.SearchResult{Rank: rank, URL: url, Payload: click.Payload}, nil
}

func resultPosition(payload map[string]any) (int, error) {
	pos, ok := payload["result_position"].(float64)
	if !ok {
		return 0, errors.New("payload has no numeric result_position")
	}
	if pos < 1 || pos != math.Trunc(pos) {
		return 0, fmt.Errorf("result_position %v is not a positive integer", pos)
	}
	return int(pos), nil
}

func resultURL(payload map[string]any) (string, error) {
	result, ok := payload["result"].(map[string]any)
	if !ok {
		return "", errors.New("payload has no result object")
	}
	url, ok := result["url"].(string)
	if !ok || url == "" {
		return "", errors.New("payload result has no url")
	}
	return url, nil
}

// ParseLanguages reads the percentage that follows each language label.
func (GitHubExtractor) ParseLanguages(page string) (map[string]float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, &domain.ParseError{Context: "repository page", Err: err}
	}

	stats := make(map[string]float64)
	var parseErr error
	doc.Find(languageItemSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		lang, pct, err := parseLanguageItem(s)
		if err != nil {
			parseErr = &domain.ParseError{Context: fmt.Sprintf("language item %d", i+1), Err: err}
			return false
		}
		stats[lang] = pct
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return stats, nil
}

func parseLanguageItem(s *goquery.Selection) (string, float64, error) {
	label := s.Find(languageLabelSelector).First()
	if label.Length() == 0 {
		return "", 0, errors.New("item has no language label")
	}
	value := label.Next()
	if value.Length() == 0 || goquery.NodeName(value) != "span" {
		return "", 0, errors.New("language label is not followed by a percentage span")
	}

	lang := strings.TrimSpace(label.Text())
	if lang == "" {
		return "", 0, errors.New("language label is empty")
	}
	pct, err := parsePercent(value.Text())
	if err != nil {
		return "", 0, fmt.Errorf("language %s: %w", lang, err)
	}
	return lang, pct, nil
}

func parsePercent(text string) (float64, error) {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "%"))
	pct, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", text, err)
	}
	if pct < 0 || pct > 100 || math.IsNaN(pct) {
		return 0, fmt.Errorf("percentage %q out of range", text)
	}
	return pct, nil
}
