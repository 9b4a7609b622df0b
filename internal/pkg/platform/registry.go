package platform

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	log "log/slog"
)

var (
	_ Searcher       = (*TwitterClient)(nil)
	_ Publisher      = (*TwitterClient)(nil)
	_ ProfileFetcher = (*TwitterClient)(nil)
	_ Searcher       = (*RedditClient)(nil)
	_ Publisher      = (*RedditClient)(nil)
	_ ProfileFetcher = (*RedditClient)(nil)
	_ Publisher      = (*LinkedInClient)(nil)
	_ ProfileFetcher = (*LinkedInClient)(nil)
	_ Searcher       = (*SerpAPISearcher)(nil)
	_ Searcher       = (*ApifySearcher)(nil)
)

// 未在 autopilot.search_providers 中指定时各平台使用的搜索源
var defaultProviders = map[string]string{
	model.PlatformTwitter:  "twitter",
	model.PlatformReddit:   "reddit",
	model.PlatformLinkedIn: "serpapi",
}

// Registry 按平台名查找搜索、发布、账号能力
type Registry struct {
	searchers  map[string]Searcher
	publishers map[string]Publisher
	profiles   map[string]ProfileFetcher
}

func NewRegistry() *Registry {
	return &Registry{
		searchers:  make(map[string]Searcher),
		publishers: make(map[string]Publisher),
		profiles:   make(map[string]ProfileFetcher),
	}
}

// NewRegistryFromConfig 按配置装配三个平台
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	twitter := NewTwitterClient(cfg.Twitter)
	reddit := NewRedditClient(cfg.Reddit)
	linkedin := NewLinkedInClient(cfg.LinkedIn)

	r := NewRegistry()
	r.RegisterPublisher(model.PlatformTwitter, twitter)
	r.RegisterPublisher(model.PlatformReddit, reddit)
	r.RegisterPublisher(model.PlatformLinkedIn, linkedin)
	r.RegisterProfile(model.PlatformTwitter, twitter)
	r.RegisterProfile(model.PlatformReddit, reddit)
	r.RegisterProfile(model.PlatformLinkedIn, linkedin)

	for platform, fallback := range defaultProviders {
		provider := fallback
		if p, ok := cfg.Autopilot.SearchProviders[platform]; ok && p != "" {
			provider = p
		}
		var searcher Searcher
		switch provider {
		case "twitter":
			searcher = twitter
		case "reddit":
			searcher = reddit
		case "serpapi":
			searcher = NewSerpAPISearcher(cfg.SerpAPI)
		case "apify":
			searcher = NewApifySearcher(cfg.Apify, platform)
		case "none":
			continue
		default:
			log.Warn("unknown search provider, platform disabled", "platform", platform, "provider", provider)
			continue
		}
		r.RegisterSearcher(platform, searcher)
	}
	return r
}

func (r *Registry) RegisterSearcher(platform string, s Searcher) {
	r.searchers[platform] = s
}

func (r *Registry) RegisterPublisher(platform string, p Publisher) {
	r.publishers[platform] = p
}

func (r *Registry) RegisterProfile(platform string, p ProfileFetcher) {
	r.profiles[platform] = p
}

func (r *Registry) Searcher(platform string) (Searcher, bool) {
	s, ok := r.searchers[platform]
	return s, ok
}

func (r *Registry) Publisher(platform string) (Publisher, bool) {
	p, ok := r.publishers[platform]
	return p, ok
}

func (r *Registry) Profile(platform string) (ProfileFetcher, bool) {
	p, ok := r.profiles[platform]
	return p, ok
}

// Supported 平台名是否有效
func Supported(platform string) bool {
	_, ok := defaultProviders[platform]
	return ok
}
