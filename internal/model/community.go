package model

import (
	"strings"
	"time"
)

// MaxCityStateResults caps GET /custom/city_states
const MaxCityStateResults = 5

// UserVisitTracking counts visits of an anonymous community web client
type UserVisitTracking struct {
	ID           string     `json:"id"`
	UUIDIP       string     `json:"uuid_ip"`
	IP           *string    `json:"ip"`
	State        *string    `json:"state"`
	City         *string    `json:"city"`
	LoggedCounts int        `json:"logged_counts"`
	Lat          *float64   `json:"lat"`
	Lon          *float64   `json:"lon"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// CreateUserTrackingRequest is the body of POST /custom/userTracking
type CreateUserTrackingRequest struct {
	UUIDIP *string  `json:"uuid_ip"`
	IP     *string  `json:"ip"`
	State  *string  `json:"state"`
	City   *string  `json:"city"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
}

func (r *CreateUserTrackingRequest) Validate() []FieldError {
	if r.UUIDIP == nil || strings.TrimSpace(*r.UUIDIP) == "" {
		return []FieldError{{Field: "uuid_ip", Message: "uuid_ip is required from frontend"}}
	}
	return nil
}

// UpdateUserTrackingRequest is the partial body of PATCH /custom/userTracking/{uuid_ip}
type UpdateUserTrackingRequest struct {
	IP           *string `json:"ip"`
	State        *string `json:"state"`
	City         *string `json:"city"`
	LoggedCounts *int    `json:"logged_counts"`
}

func (r *UpdateUserTrackingRequest) Validate() []FieldError {
	if r.LoggedCounts != nil && *r.LoggedCounts < 0 {
		return []FieldError{{Field: "logged_counts", Message: "logged_counts must not be negative"}}
	}
	return nil
}

// IsEmpty reports whether the request sets nothing
func (r *UpdateUserTrackingRequest) IsEmpty() bool {
	return r.IP == nil && r.State == nil && r.City == nil && r.LoggedCounts == nil
}

// FamilyCount is the number of community families known in a city
type FamilyCount struct {
	City        string `json:"city"`
	State       string `json:"state"`
	FamilyCount *int   `json:"family_count"`
	IsActive    *bool  `json:"is_active"`
}

// PostType classifies community posts
type PostType struct {
	ID       string `json:"id"`
	PostType string `json:"post_type"`
	IsActive *bool  `json:"is_active"`
}

// CommunityInfo is a community post scoped to a state
type CommunityInfo struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         *string    `json:"url"`
	IsActive    *bool      `json:"is_active"`
	IsVerified  *bool      `json:"is_verified"`
	Email       string     `json:"email"`
	CreatedAt   *time.Time `json:"created_at"`
	PostTypeID  *string    `json:"post_type_id"`
	IsEmailSent *bool      `json:"is_email_sent"`
	IsPromote   *bool      `json:"is_promote"`
}

// CreateCommunityInfoRequest is the body of POST /custom/communityInfo
type CreateCommunityInfoRequest struct {
	State       string     `json:"state"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         *string    `json:"url"`
	Email       string     `json:"email"`
	CreatedAt   *time.Time `json:"created_at"`
	PostTypeID  *string    `json:"post_type_id"`
}

func (r *CreateCommunityInfoRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.State) == "" {
		errors = append(errors, FieldError{Field: "state", Message: "State is required from frontend"})
	}
	if strings.TrimSpace(r.Title) == "" {
		errors = append(errors, FieldError{Field: "title", Message: "Title is required from frontend"})
	}
	return errors
}

// UserDeviceInfo records the client device of a community visitor
type UserDeviceInfo struct {
	ID         string     `json:"id"`
	IPUUID     string     `json:"ip_uuid"`
	Device     *string    `json:"device"`
	OS         *string    `json:"os"`
	Browser    *string    `json:"browser"`
	Engine     *string    `json:"engine"`
	CPU        *string    `json:"cpu"`
	AppVersion *string    `json:"app_version,omitempty"`
	CreatedAt  *time.Time `json:"created_at"`
}

// CreateUserDeviceInfoRequest is the body of POST /custom/userDeviceInfo
type CreateUserDeviceInfoRequest struct {
	IPUUID     string  `json:"ip_uuid"`
	Device     *string `json:"device"`
	OS         *string `json:"os"`
	Browser    *string `json:"browser"`
	Engine     *string `json:"engine"`
	CPU        *string `json:"cpu"`
	AppVersion *string `json:"app_version"`
}

func (r *CreateUserDeviceInfoRequest) Validate() []FieldError {
	if strings.TrimSpace(r.IPUUID) == "" {
		return []FieldError{{Field: "ip_uuid", Message: "ip_uuid is required from frontend"}}
	}
	return nil
}

// FamilyNumberSubmitted is a family count reported by a visitor
type FamilyNumberSubmitted struct {
	ID           string     `json:"id,omitempty"`
	UUIDIP       string     `json:"uuid_ip"`
	State        *string    `json:"state"`
	City         *string    `json:"city"`
	IsVerified   bool       `json:"is_verified"`
	FamilyNumber int        `json:"family_number"`
	CreatedAt    *time.Time `json:"created_at"`
}

// SubmitFamilyNumberRequest is the body of POST /custom/familyNumberSubmitted
type SubmitFamilyNumberRequest struct {
	UUIDIP       string  `json:"uuid_ip"`
	FamilyNumber int     `json:"family_number"`
	State        *string `json:"state"`
	City         *string `json:"city"`
	IsVerified   bool    `json:"is_verified"`
}

func (r *SubmitFamilyNumberRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.UUIDIP) == "" {
		errors = append(errors, FieldError{Field: "uuid_ip", Message: "uuid_ip is required"})
	}
	if r.FamilyNumber < 0 {
		errors = append(errors, FieldError{Field: "family_number", Message: "family_number must not be negative"})
	}
	return errors
}

// FamilyNumberSubmittedResponse wraps the stored submission
type FamilyNumberSubmittedResponse struct {
	Message string                `json:"message"`
	Data    FamilyNumberSubmitted `json:"data"`
}

// CityState is one row of the city lookup table
type CityState struct {
	ID        string `json:"id"`
	City      string `json:"city"`
	StateAbbr string `json:"state_abbr"`
	CityState string `json:"city_state"`
}

// Label returns the "City, ST" search key
func (c CityState) Label() string {
	return c.City + ", " + c.StateAbbr
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// VersionResponse is returned by GET /custom/version_build
type VersionResponse struct {
	Version string `json:"version"`
}
