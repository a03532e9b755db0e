package catalog

// SourceMode selects the adapter used for product pages.
type SourceMode string

const (
	ModeHTML SourceMode = "html"
	ModeJSON SourceMode = "json"
)

const (
	// DefaultConfidenceThreshold applies when routing.confidence_threshold is unset or zero.
	DefaultConfidenceThreshold = 0.8
	// DefaultCurrency applies when neither the product page nor the site names one.
	DefaultCurrency = "UAH"
	// DefaultJSONSuffix is appended to product URLs in JSON mode.
	DefaultJSONSuffix = ".json"
)

// SiteConfig describes how to crawl and parse one source site.
type SiteConfig struct {
	Source      string            `mapstructure:"source"`
	Mode        SourceMode        `mapstructure:"mode"`
	Currency    string            `mapstructure:"currency"`
	Listing     ListingConfig     `mapstructure:"listing"`
	ProductPage ProductPageConfig `mapstructure:"product_page"`
	Routing     RoutingConfig     `mapstructure:"routing"`
}

// ListingConfig drives the crawl frontier.
type ListingConfig struct {
	StartURLs              []string `mapstructure:"start_urls"`
	ProductLinkSelector    string   `mapstructure:"product_link_selector"`
	PaginationNextSelector string   `mapstructure:"pagination_next_selector"`
	MaxPages               int      `mapstructure:"max_pages"`
}

// ProductPageConfig holds the selectors applied to product pages.
type ProductPageConfig struct {
	TitleSelector              string `mapstructure:"title_selector"`
	BrandSelector              string `mapstructure:"brand_selector"`
	DescriptionSelector        string `mapstructure:"description_selector"`
	PriceSelector              string `mapstructure:"price_selector"`
	SKUSelector                string `mapstructure:"sku_selector"`
	GTINSelector               string `mapstructure:"gtin_selector"`
	StockSelector              string `mapstructure:"stock_selector"`
	ImageSelector              string `mapstructure:"image_selector"`
	CategoryBreadcrumbSelector string `mapstructure:"category_breadcrumb_selector"`
	Currency                   string `mapstructure:"currency"`
	JSONSuffix                 string `mapstructure:"json_suffix"`
}

// RoutingConfig controls brand assignment.
type RoutingConfig struct {
	ForceBrandForDomain string  `mapstructure:"force_brand_for_domain"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// Threshold returns the effective confidence threshold.
func (r RoutingConfig) Threshold() float64 {
	if r.ConfidenceThreshold == 0 {
		return DefaultConfidenceThreshold
	}
	return r.ConfidenceThreshold
}

// ResolveCurrency picks the product page currency, then the site currency,
// then DefaultCurrency.
func (s SiteConfig) ResolveCurrency() string {
	switch {
	case s.ProductPage.Currency != "":
		return s.ProductPage.Currency
	case s.Currency != "":
		return s.Currency
	default:
		return DefaultCurrency
	}
}

// EffectiveMode returns the configured mode, defaulting to HTML.
func (s SiteConfig) EffectiveMode() SourceMode {
	if s.Mode == "" {
		return ModeHTML
	}
	return s.Mode
}

// JSONSuffix returns the configured JSON suffix or DefaultJSONSuffix.
func (s SiteConfig) JSONSuffix() string {
	if s.ProductPage.JSONSuffix == "" {
		return DefaultJSONSuffix
	}
	return s.ProductPage.JSONSuffix
}
