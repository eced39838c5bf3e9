package domain

// IntelRequest is the payload sent to the remote product-intelligence service
type IntelRequest struct {
	URL           string   `json:"url"`
	DOM           string   `json:"dom"`
	MissingFields []string `json:"missingFields"`
}

// RemoteIntel is the remote product-intelligence answer: a partial product
// plus locators that surfaced the data on the page
type RemoteIntel struct {
	Product   Product      `json:"product"`
	Selectors LocatorTable `json:"selectors"`
	CachedAt  int64        `json:"cachedAt,omitempty"`
}
