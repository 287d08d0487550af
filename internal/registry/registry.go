package registry

import (
	"fmt"
	"strings"

	"github.com/rentwise/api/internal/model"
)

// Registry maps resource names onto their entries. It is built once by New
// and never modified, so concurrent lookups need no locking.
type Registry struct {
	entries map[model.ResourceKind]Entry
}

// New builds the registry of every generic resource.
// It panics if a kind in model.AllResourceKinds has no entry.
func New() *Registry {
	return build(definitions(), model.AllResourceKinds)
}

func build(defs []Entry, kinds []model.ResourceKind) *Registry {
	r := &Registry{entries: make(map[model.ResourceKind]Entry, len(defs))}
	for _, e := range defs {
		if _, dup := r.entries[e.Kind()]; dup {
			panic(fmt.Sprintf("registry: %s defined twice", e.Kind()))
		}
		r.entries[e.Kind()] = e
	}
	for _, k := range kinds {
		if _, ok := r.entries[k]; !ok {
			panic(fmt.Sprintf("registry: no entry for %s", k))
		}
	}
	for kind, e := range r.entries {
		for col, ref := range e.ForeignKeys() {
			if _, ok := r.entries[ref]; !ok {
				panic(fmt.Sprintf("registry: %s.%s references unknown resource %s", kind, col, ref))
			}
		}
	}
	return r
}

func definitions() []Entry {
	return []Entry{
		define[model.UserProfile, model.UserProfileUpdate](model.KindUserProfile,
			Spec{Owner: "user_id"},
			model.UserProfile.Output),
		define[model.UserTrackingPage, NoUpdate](model.KindUserTrackingPages,
			Spec{Owner: "user_id"},
			model.UserTrackingPage.Output),
		define[model.UserNotification, model.UserNotificationUpdate](model.KindUserNotification,
			Spec{Owner: "user_id"},
			model.UserNotification.Output),
		define[model.TermsAndConditions, NoUpdate](model.KindTermsAndConditions,
			Spec{},
			model.TermsAndConditions.Output),
		define[model.SubscriptionDetails, NoUpdate](model.KindSubscriptionDetails,
			Spec{},
			model.SubscriptionDetails.Output),
		define[model.Plan, NoUpdate](model.KindPlan,
			Spec{},
			model.Plan.Output),
		define[model.Subscription, NoUpdate](model.KindSubscription,
			Spec{Owner: "user_id", ForeignKeys: map[string]model.ResourceKind{"plan_id": model.KindPlan}},
			model.Subscription.Output),
		define[model.Invoice, NoUpdate](model.KindInvoice,
			Spec{Owner: "user_id"},
			model.Invoice.Output),
		define[model.Listing, model.ListingUpdate](model.KindListings,
			Spec{Owner: "user_id", Gated: true},
			model.Listing.Output),
		define[model.ListingSpace, NoUpdate](model.KindListingSpace,
			Spec{ForeignKeys: map[string]model.ResourceKind{"listing_id": model.KindListings}},
			model.ListingSpace.Output),
		define[model.Image, NoUpdate](model.KindImage,
			Spec{ForeignKeys: map[string]model.ResourceKind{"listing_id": model.KindListings}},
			model.Image.Output),
		define[model.Favorite, NoUpdate](model.KindFavorites,
			Spec{Owner: "user_id", Gated: true, ForeignKeys: map[string]model.ResourceKind{"listing_id": model.KindListings}},
			model.Favorite.Output),
	}
}

// Lookup resolves a resource name case-insensitively
func (r *Registry) Lookup(name string) (Entry, error) {
	e, ok := r.entries[model.ResourceKind(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, ErrUnknownResource
	}
	return e, nil
}

// LookupSchema returns the ordered output fields of a resource
func (r *Registry) LookupSchema(name string) ([]model.SchemaField, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.Schema(), nil
}

// Kinds returns the registered resource kinds in declaration order
func (r *Registry) Kinds() []model.ResourceKind {
	kinds := make([]model.ResourceKind, 0, len(r.entries))
	for _, k := range model.AllResourceKinds {
		if _, ok := r.entries[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
