package scraper

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/logger"
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"github.com/go-shiori/go-readability"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// 可见正文少于该长度的页面视为 JS 壳
	minVisibleText = 200
	maxContentRunes = 3000
)

var whitespace = regexp.MustCompile(`\s+`)

var ErrNoContent = errors.New("no readable content")

// Page 抓取到的帖子正文
type Page struct {
	Title   string
	Content string
}

// Scraper 补全只有摘要的帖子正文：OG 标签 -> readability -> 浏览器渲染
type Scraper struct {
	httpClient *resty.Client
	browserCtx context.Context
	cancel     context.CancelFunc
	timeout    time.Duration
}

// NewScraper enable_browser 为 false 时不启动 Chrome
func NewScraper(cfg config.ScraperConfig) *Scraper {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := resty.NewWithClient(&http.Client{Transport: logger.NewHTTPTransport("scraper", false)}).
		SetTimeout(timeout).
		SetHeader("User-Agent", ua).
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	s := &Scraper{httpClient: client, timeout: timeout}
	if !cfg.EnableBrowser {
		return s
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(ua),
	)
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		log.Error("browser start failed, rendering disabled", "err", err)
		browserCancel()
		allocCancel()
		return s
	}

	s.browserCtx = browserCtx
	s.cancel = func() {
		browserCancel()
		allocCancel()
	}
	return s
}

// Fetch 抓取并提取正文
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	html := ""
	resp, err := s.httpClient.R().SetContext(ctx).Get(pageURL)
	if err == nil && resp.IsSuccess() {
		html = resp.String()
	}

	if s.browserCtx != nil && needsRender(html) {
		if rendered, err := s.render(ctx, pageURL); err == nil {
			html = rendered
		} else {
			log.WarnContext(ctx, "browser render failed", "url", pageURL, "err", err)
		}
	}
	if html == "" {
		if err == nil {
			err = ErrNoContent
		}
		return nil, err
	}

	page := Extract(html, parsedURL)
	if page.Content == "" {
		return nil, ErrNoContent
	}
	return page, nil
}

// Extract 优先取 og:description，过短时交给 readability
func Extract(html string, pageURL *url.URL) *Page {
	page := &Page{}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		page.Title = strings.TrimSpace(metaContent(doc, "og:title"))
		if page.Title == "" {
			page.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		page.Content = normalize(metaContent(doc, "og:description"))
	}

	if len([]rune(page.Content)) < 200 {
		if article, err := readability.FromReader(strings.NewReader(html), pageURL); err == nil {
			text := normalize(article.TextContent)
			if len([]rune(text)) > len([]rune(page.Content)) {
				page.Content = text
			}
			if page.Title == "" {
				page.Title = article.Title
			}
		}
	}

	if runes := []rune(page.Content); len(runes) > maxContentRunes {
		page.Content = string(runes[:maxContentRunes])
	}
	return page
}

func (s *Scraper) render(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	defer cancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, s.timeout)
	defer timeoutCancel()
	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(`body`),
		chromedp.OuterHTML("html", &html),
	)
	return html, err
}

func (s *Scraper) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

var shellMarkers = []string{
	"enable javascript",
	"javascript is disabled",
	"javascript is required",
}

// needsRender 可见正文过短，或正文不长且 noscript 要求开启 JavaScript 时需要浏览器渲染
func needsRender(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	visible := utf8.RuneCountInString(normalize(body.Text()))
	if visible < minVisibleText {
		return true
	}
	if visible >= 4*minVisibleText {
		return false
	}
	noscript := strings.ToLower(doc.Find("noscript").Text())
	for _, marker := range shellMarkers {
		if strings.Contains(noscript, marker) {
			return true
		}
	}
	return false
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(`meta[property="` + property + `"]`)
	if sel.Length() == 0 {
		sel = doc.Find(`meta[name="` + property + `"]`)
	}
	content, _ := sel.First().Attr("content")
	return content
}

func normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
