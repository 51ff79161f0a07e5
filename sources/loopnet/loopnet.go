package loopnet

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"econdata-collector/collect"
	"econdata-collector/config"
	"econdata-collector/models"
	"econdata-collector/utils"
)

const pageLoadTimeout = 90 * time.Second

// priceRegexp captures the numeric part of a listing price string.
var priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// Scraper collects commercial real-estate listings from LoopNet search
// pages. Unlike the API collectors it fetches through a headless browser,
// but it feeds the same parser and produces the same summary shape, so the
// CLI can persist its output through the same sinks.
type Scraper struct {
	cfg      config.SourceConfig
	logger   *utils.Logger
	limiter  *collect.RateLimiter
	parser   *collect.Parser
	retry    *utils.RetryConfig
	visited  *utils.URLSet
	fieldMap models.FieldMap
}

// New builds a LoopNet scraper from its catalog entry. Each target is one
// market search URL.
func New(cfg config.SourceConfig, logger *utils.Logger, parser *collect.Parser) *Scraper {
	log := logger.Named(cfg.Name)
	return &Scraper{
		cfg:      cfg,
		logger:   log,
		limiter:  collect.NewRateLimiter(cfg.RateInterval),
		parser:   parser,
		visited:  utils.NewURLSet(),
		fieldMap: cfg.FieldMap(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      log,
		},
	}
}

// Collect renders each target's search page, extracts the listing cards
// and parses them into records. Per-target failures are accumulated in the
// summary; the loop never aborts because one page failed.
func (s *Scraper) Collect(ctx context.Context, targets []models.Target) *models.Summary {
	summary := &models.Summary{
		RunID:      uuid.NewString(),
		DataSource: s.cfg.Name,
		StartedAt:  time.Now(),
		Attempted:  len(targets),
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if bin := findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			for _, left := range targets[i:] {
				summary.AddFailure(left.ID, "run abandoned: "+err.Error())
			}
			break
		}

		s.limiter.Wait()

		pageURL := target.Param("url", target.ID)
		html, err := s.renderPage(allocCtx, pageURL)
		if err != nil {
			summary.AddFailure(target.ID, err.Error())
			continue
		}

		rows, err := s.extractListings(html)
		if err != nil {
			summary.AddFailure(target.ID, "unusable page: "+err.Error())
			continue
		}

		records, warnings := s.parser.Parse(rows, s.fieldMap, collect.Context{
			"market": models.StringValue(target.ID),
		})
		summary.AddSuccess(records)
		s.logger.Debug("market %s: %d listing(s), %d warning(s)", target.ID, len(records), len(warnings))
	}

	summary.Elapsed = time.Since(summary.StartedAt)
	s.logger.Info("run %s finished: %d succeeded, %d failed, %d record(s) in %s",
		summary.RunID, summary.Succeeded, summary.Failed(), len(summary.Records),
		summary.Elapsed.Truncate(time.Millisecond))
	return summary
}

// renderPage loads the search page in a fresh tab and returns the rendered
// document. LoopNet builds its result list client-side, so a plain HTTP GET
// is not enough here.
func (s *Scraper) renderPage(allocCtx context.Context, pageURL string) (string, error) {
	var html string

	err := s.retry.Do(allocCtx, "render "+pageURL, func() error {
		tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, pageLoadTimeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(5*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.OuterHTML("html", &html),
		)
	})
	if err != nil {
		return "", fmt.Errorf("loopnet: %w", err)
	}
	return html, nil
}

// extractListings pulls the placard cards out of a rendered search page.
// Rows carry the raw text plus a pre-extracted numeric price so the field
// map can coerce it. A page whose cards were all seen on a previous cycle
// yields zero rows and no error; only a page without any cards is a failure.
func (s *Scraper) extractListings(html string) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	cards := doc.Find("article.placard, div.placard")
	if cards.Length() == 0 {
		return nil, fmt.Errorf("no listing cards found")
	}

	rows := make([]map[string]any, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find("a.placard-title, a[href*='/Listing/']").First().Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !s.visited.Add(href) {
			return
		}

		rawPrice := text(card, ".price, .placard-pricing, .price-range")
		rows = append(rows, map[string]any{
			"url":       href,
			"title":     text(card, "a.placard-title, .placard-title"),
			"address":   text(card, ".placard-address, .address"),
			"raw_price": rawPrice,
			"price":     priceRegexp.FindString(strings.ReplaceAll(rawPrice, ",", "")),
			"size":      text(card, ".space-range, .available-space"),
			"subtype":   text(card, ".placard-type, .property-type"),
		})
	})

	return rows, nil
}

func text(sel *goquery.Selection, query string) string {
	return strings.TrimSpace(sel.Find(query).First().Text())
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
