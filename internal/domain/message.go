package domain

// Message kinds understood by the background service
const (
	MessageProductDetected   = "PRODUCT_DETECTED"
	MessageLookupAffiliate   = "LOOKUP_AFFILIATE"
	MessageSimilarProducts   = "SIMILAR_PRODUCTS"
	MessageRemoteIntel       = "REMOTE_PRODUCT_INTEL"
	MessageSearchSuggestions = "SEARCH_PRODUCT_SUGGESTIONS"
	MessageApplyAffiliate    = "APPLY_AFFILIATE"
	MessageSetConfig         = "SET_CONFIG"
	MessageGetConfig         = "GET_CONFIG"
	MessageGetDealHistory    = "GET_DEAL_HISTORY"
	MessageGetPopupData      = "GET_POPUP_DATA"
)

// Message is the envelope exchanged between the content side and the
// background service. Only the fields relevant to Type are set.
type Message struct {
	Type  string `json:"type"`
	TabID string `json:"tabId,omitempty"`

	Product       *Product      `json:"product,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	Payload       *IntelRequest `json:"payload,omitempty"`
	Query         string        `json:"query,omitempty"`
	Context       string        `json:"context,omitempty"`
	DomSnippet    string        `json:"domSnippet,omitempty"`
	SelectorHints LocatorTable  `json:"selectorHints,omitempty"`
	AffiliateURL  string        `json:"affiliateUrl,omitempty"`
	DealRecord    *DealRecord   `json:"dealRecord,omitempty"`
	Updates       *ConfigUpdate `json:"updates,omitempty"`
}

// ErrorResponse is the reply for a failed operation
type ErrorResponse struct {
	Error string `json:"error"`
}

// AckResponse acknowledges a message without a payload
type AckResponse struct {
	OK        bool  `json:"ok"`
	AppliedAt int64 `json:"appliedAt,omitempty"`
}

// HistoryResponse wraps the deal history ledger
type HistoryResponse struct {
	Items []DealHistoryEntry `json:"items"`
}

// PopupData is everything the popup needs for one tab
type PopupData struct {
	Product *Product         `json:"product"`
	Deal    *DealMatch       `json:"deal"`
	Similar *SimilarResult   `json:"similar"`
	Config  *ExtensionConfig `json:"config"`
}
