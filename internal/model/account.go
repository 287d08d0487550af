package model

import (
	"strings"
	"time"
)

// Field length limits
const (
	MaxNameLength         = 50
	MaxPlanNameLength     = 100
	MaxBillingCycleLength = 20
	MaxStatusLength       = 20
	MaxNotificationType   = 255
)

// Subscription statuses. Anything other than active counts as a limited tier.
const (
	SubscriptionActive = "active"
	SubscriptionTrial  = "trial"
)

// UserProfile is the caller's own profile row
type UserProfile struct {
	ID        string     `json:"id" col:"managed"`
	UserID    string     `json:"user_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	FCMToken  *string    `json:"fcm_token"`
	Phone     *string    `json:"phone"`
	Email     string     `json:"email"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	ImageURL  *string    `json:"image_url"`
	CreatedAt *time.Time `json:"created_at" col:"managed"`
}

// Validate checks required profile fields on create
func (p *UserProfile) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(p.FirstName) == "" {
		errors = append(errors, FieldError{Field: "first_name", Message: "first_name is required"})
	} else if len(p.FirstName) > MaxNameLength {
		errors = append(errors, FieldError{Field: "first_name", Message: "first_name must be 50 characters or less"})
	}
	if strings.TrimSpace(p.LastName) == "" {
		errors = append(errors, FieldError{Field: "last_name", Message: "last_name is required"})
	} else if len(p.LastName) > MaxNameLength {
		errors = append(errors, FieldError{Field: "last_name", Message: "last_name must be 50 characters or less"})
	}
	if strings.TrimSpace(p.Email) == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	}
	return errors
}

// UserProfileUpdate is the partial update accepted for user_profile
type UserProfileUpdate struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Phone     *string  `json:"phone"`
	Email     *string  `json:"email"`
	FCMToken  *string  `json:"fcm_token"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	ImageURL  *string  `json:"image_url"`
}

// UserProfileOutput is the public shape of a profile
type UserProfileOutput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	FCMToken  *string `json:"fcm_token"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ImageURL  *string `json:"image_url"`
}

// Output projects the row
func (p UserProfile) Output() UserProfileOutput {
	return UserProfileOutput{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		FCMToken:  p.FCMToken,
		Email:     p.Email,
		Phone:     p.Phone,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		ImageURL:  p.ImageURL,
	}
}

// UserTrackingPage records a page visited by a user
type UserTrackingPage struct {
	ID        string     `json:"id" col:"managed"`
	UserID    string     `json:"user_id"`
	Pages     *string    `json:"pages"`
	CreatedAt *time.Time `json:"created_at" col:"managed"`
}

type UserTrackingPageOutput struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Pages     *string    `json:"pages"`
	CreatedAt *time.Time `json:"created_at"`
}

func (p UserTrackingPage) Output() UserTrackingPageOutput {
	return UserTrackingPageOutput(p)
}

// UserNotification is a scheduled in-app notification
type UserNotification struct {
	ID               string     `json:"id" col:"managed"`
	UserID           string     `json:"user_id"`
	Type             string     `json:"type"`
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	ScheduleDatetime *time.Time `json:"schedule_datetime"`
	IsAlreadyViewed  *bool      `json:"is_already_viewed"`
}

func (n *UserNotification) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(n.Type) == "" {
		errors = append(errors, FieldError{Field: "type", Message: "type is required"})
	} else if len(n.Type) > MaxNotificationType {
		errors = append(errors, FieldError{Field: "type", Message: "type must be 255 characters or less"})
	}
	return errors
}

// UserNotificationUpdate only lets the caller mark a notification as viewed
type UserNotificationUpdate struct {
	IsAlreadyViewed *bool `json:"is_already_viewed"`
}

type UserNotificationOutput struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	ScheduleDatetime *time.Time `json:"schedule_datetime"`
	IsAlreadyViewed  *bool      `json:"is_already_viewed"`
}

func (n UserNotification) Output() UserNotificationOutput {
	return UserNotificationOutput{
		ID:               n.ID,
		Type:             n.Type,
		Title:            n.Title,
		Description:      n.Description,
		ScheduleDatetime: n.ScheduleDatetime,
		IsAlreadyViewed:  n.IsAlreadyViewed,
	}
}

// TermsAndConditions is a published terms document
type TermsAndConditions struct {
	ID          string     `json:"id" col:"managed"`
	Description string     `json:"description"`
	CreatedAt   *time.Time `json:"created_at" col:"managed"`
}

func (t *TermsAndConditions) Validate() []FieldError {
	if strings.TrimSpace(t.Description) == "" {
		return []FieldError{{Field: "description", Message: "description is required"}}
	}
	return nil
}

type TermsAndConditionsOutput struct {
	ID          string     `json:"id"`
	CreatedAt   *time.Time `json:"created_at"`
	Description *string    `json:"description"`
}

func (t TermsAndConditions) Output() TermsAndConditionsOutput {
	return TermsAndConditionsOutput{
		ID:          t.ID,
		CreatedAt:   t.CreatedAt,
		Description: &t.Description,
	}
}

// SubscriptionDetails holds the payment contact and QR image shown on the paywall
type SubscriptionDetails struct {
	ID      string `json:"id" col:"managed"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	QRImage string `json:"qrimage"`
}

func (d *SubscriptionDetails) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(d.Email) == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	}
	if strings.TrimSpace(d.Phone) == "" {
		errors = append(errors, FieldError{Field: "phone", Message: "phone is required"})
	}
	if strings.TrimSpace(d.QRImage) == "" {
		errors = append(errors, FieldError{Field: "qrimage", Message: "qrimage is required"})
	}
	return errors
}

type SubscriptionDetailsOutput struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	QRImage string `json:"qr_image"`
}

func (d SubscriptionDetails) Output() SubscriptionDetailsOutput {
	return SubscriptionDetailsOutput(d)
}

// Plan is a purchasable subscription plan
type Plan struct {
	ID           string     `json:"id" col:"managed"`
	Name         string     `json:"name"`
	Description  *string    `json:"description"`
	Price        *float64   `json:"price"`
	BillingCycle *string    `json:"billing_cycle"`
	CreatedAt    *time.Time `json:"created_at" col:"managed"`
}

func (p *Plan) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(p.Name) == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(p.Name) > MaxPlanNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	if p.BillingCycle != nil && len(*p.BillingCycle) > MaxBillingCycleLength {
		errors = append(errors, FieldError{Field: "billing_cycle", Message: "billing_cycle must be 20 characters or less"})
	}
	return errors
}

type PlanOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	BillingCycle *string  `json:"billing_cycle"`
}

func (p Plan) Output() PlanOutput {
	return PlanOutput{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		BillingCycle: p.BillingCycle,
	}
}

// Subscription links a user to a plan
type Subscription struct {
	ID           string     `json:"id" col:"managed"`
	UserID       string     `json:"user_id"`
	PlanID       string     `json:"plan_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Status       string     `json:"status"`
	TrialEndDate *time.Time `json:"trial_end_date"`
	CanceledAt   *time.Time `json:"canceled_at"`
	CreatedAt    *time.Time `json:"created_at" col:"managed"`
}

func (s *Subscription) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(s.PlanID) == "" {
		errors = append(errors, FieldError{Field: "plan_id", Message: "plan_id is required"})
	}
	if strings.TrimSpace(s.Status) == "" {
		errors = append(errors, FieldError{Field: "status", Message: "status is required"})
	} else if len(s.Status) > MaxStatusLength {
		errors = append(errors, FieldError{Field: "status", Message: "status must be 20 characters or less"})
	}
	return errors
}

type SubscriptionOutput struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	PlanID       string     `json:"plan_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Status       string     `json:"status"`
	TrialEndDate *time.Time `json:"trial_end_date"`
	CanceledAt   *time.Time `json:"canceled_at"`
}

func (s Subscription) Output() SubscriptionOutput {
	return SubscriptionOutput{
		ID:           s.ID,
		UserID:       s.UserID,
		PlanID:       s.PlanID,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		Status:       s.Status,
		TrialEndDate: s.TrialEndDate,
		CanceledAt:   s.CanceledAt,
	}
}

// Invoice is a billing record for a user
type Invoice struct {
	ID          string     `json:"id" col:"managed"`
	UserID      string     `json:"user_id"`
	PlanName    string     `json:"plan_name"`
	Amount      float64    `json:"amount"`
	InvoiceDate *time.Time `json:"invoice_date"`
	DueDate     *time.Time `json:"due_date"`
	Paid        *bool      `json:"paid"`
}

func (i *Invoice) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(i.PlanName) == "" {
		errors = append(errors, FieldError{Field: "plan_name", Message: "plan_name is required"})
	}
	if i.Amount < 0 {
		errors = append(errors, FieldError{Field: "amount", Message: "amount must not be negative"})
	}
	return errors
}

type InvoiceOutput struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	PlanName    string     `json:"plan_name"`
	Amount      float64    `json:"amount"`
	InvoiceDate *time.Time `json:"invoice_date"`
	DueDate     *time.Time `json:"due_date"`
	Paid        *bool      `json:"paid"`
}

func (i Invoice) Output() InvoiceOutput {
	return InvoiceOutput(i)
}

// AppVersion is the minimum supported mobile app build
type AppVersion struct {
	ID            string     `json:"id"`
	VersionNumber string     `json:"version_number"`
	Description   *string    `json:"description"`
	AndroidURL    *string    `json:"android_url"`
	IOSURL        *string    `json:"ios_url"`
	ForceUpdate   *bool      `json:"force_update"`
	CreatedAt     *time.Time `json:"created_at"`
}

// AppVersionResponse is returned by GET /generic/app_version
type AppVersionResponse struct {
	VersionNumber string     `json:"version_number"`
	Description   string     `json:"description"`
	CreatedAt     *time.Time `json:"created_at"`
	ForceUpdate   bool       `json:"force_update"`
	AndroidURL    *string    `json:"android_url"`
	IOSURL        *string    `json:"ios_url"`
}

// Response builds the client shape; force_update defaults to true
func (v AppVersion) Response() AppVersionResponse {
	resp := AppVersionResponse{
		VersionNumber: v.VersionNumber,
		CreatedAt:     v.CreatedAt,
		ForceUpdate:   true,
		AndroidURL:    v.AndroidURL,
		IOSURL:        v.IOSURL,
	}
	if v.Description != nil {
		resp.Description = *v.Description
	}
	if v.ForceUpdate != nil {
		resp.ForceUpdate = *v.ForceUpdate
	}
	return resp
}

// ProfileExistsResponse answers GET /generic/user_profile/exists
type ProfileExistsResponse struct {
	IsValid bool `json:"isValid"`
}
