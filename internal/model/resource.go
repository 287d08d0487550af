package model

// ResourceKind names a table reachable through the generic /generic/{resource} routes
type ResourceKind string

const (
	KindUserProfile         ResourceKind = "user_profile"
	KindUserTrackingPages   ResourceKind = "user_tracking_pages"
	KindUserNotification    ResourceKind = "user_notification"
	KindTermsAndConditions  ResourceKind = "terms_and_conditions"
	KindSubscriptionDetails ResourceKind = "subscription_details"
	KindPlan                ResourceKind = "plan"
	KindSubscription        ResourceKind = "subscription"
	KindInvoice             ResourceKind = "invoice"
	KindListings            ResourceKind = "listings"
	KindListingSpace        ResourceKind = "listing_space"
	KindImage               ResourceKind = "image"
	KindFavorites           ResourceKind = "favorites"
)

// AllResourceKinds is the closed set of generic resources.
// The registry refuses to start if any of these has no entry.
var AllResourceKinds = []ResourceKind{
	KindUserProfile,
	KindUserTrackingPages,
	KindUserNotification,
	KindTermsAndConditions,
	KindSubscriptionDetails,
	KindPlan,
	KindSubscription,
	KindInvoice,
	KindListings,
	KindListingSpace,
	KindImage,
	KindFavorites,
}

// String returns the resource name
func (k ResourceKind) String() string {
	return string(k)
}

// Row is a record as returned by the repository layer.
// Record ids are "table:key" strings and datetimes are time.Time.
type Row = map[string]interface{}

// ColumnValue is a single typed column assignment or equality filter
type ColumnValue struct {
	Column string
	Value  interface{} // nil clears the column
	// Datetime values are RFC 3339 strings cast server-side
	Datetime bool
	// Record values are "table:key" ids compared as record links
	Record bool
}

// SchemaField describes one field of a response schema
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// DeleteResult is returned by generic deletes
type DeleteResult struct {
	Deleted int    `json:"deleted"`
	Detail  string `json:"detail"`
}
