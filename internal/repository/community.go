package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

// CommunityRepository handles the community web app tables
type CommunityRepository struct {
	db database.Database
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db database.Database) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// ListVisits returns visit tracking rows, filtered by uuid_ip when it is set
func (r *CommunityRepository) ListVisits(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error) {
	query := `SELECT * FROM user_visit_tracking`
	vars := map[string]interface{}{}
	if uuidIP != "" {
		query += ` WHERE uuid_ip = $uuid_ip`
		vars["uuid_ip"] = uuidIP
	}
	query += ` ORDER BY created_at`

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRows[model.UserVisitTracking](results, 0)
}

// GetVisit retrieves a visit tracking row by uuid_ip
func (r *CommunityRepository) GetVisit(ctx context.Context, uuidIP string) (*model.UserVisitTracking, error) {
	query := `SELECT * FROM user_visit_tracking WHERE uuid_ip = $uuid_ip LIMIT 1`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"uuid_ip": uuidIP})
	if err != nil {
		return nil, err
	}
	visits, err := decodeRows[model.UserVisitTracking](results, 0)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return nil, nil
	}
	return visits[0], nil
}

// CreateVisit inserts a visit tracking row with logged_counts of 1.
// Returns database.ErrDuplicate when uuid_ip is taken.
func (r *CommunityRepository) CreateVisit(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error) {
	query := `
		CREATE user_visit_tracking CONTENT {
			uuid_ip: $uuid_ip,
			ip: $ip,
			state: $state,
			city: $city,
			logged_counts: 1,
			lat: $lat,
			lon: $lon,
			created_at: time::now()
		} RETURN AFTER
	`
	vars := map[string]interface{}{
		"uuid_ip": strings.TrimSpace(*req.UUIDIP),
		"ip":      req.IP,
		"state":   req.State,
		"city":    req.City,
		"lat":     req.Lat,
		"lon":     req.Lon,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	visits, err := decodeRows[model.UserVisitTracking](results, 0)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return nil, fmt.Errorf("%w: create visit returned no record", database.ErrQuery)
	}
	return visits[0], nil
}

// UpdateVisit applies the fields set in req and returns the row after the
// change, or nil when no row has that uuid_ip
func (r *CommunityRepository) UpdateVisit(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error) {
	var values []model.ColumnValue
	if req.IP != nil {
		values = append(values, model.ColumnValue{Column: "ip", Value: *req.IP})
	}
	if req.State != nil {
		values = append(values, model.ColumnValue{Column: "state", Value: *req.State})
	}
	if req.City != nil {
		values = append(values, model.ColumnValue{Column: "city", Value: *req.City})
	}
	if req.LoggedCounts != nil {
		values = append(values, model.ColumnValue{Column: "logged_counts", Value: *req.LoggedCounts})
	}
	if len(values) == 0 {
		return r.GetVisit(ctx, uuidIP)
	}

	vars := map[string]interface{}{"uuid_ip": uuidIP}
	set, err := buildAssignments(values, vars)
	if err != nil {
		return nil, err
	}
	query := "UPDATE user_visit_tracking SET " + set + " WHERE uuid_ip = $uuid_ip RETURN AFTER"

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	visits, err := decodeRows[model.UserVisitTracking](results, 0)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return nil, nil
	}
	return visits[0], nil
}

// FamilyCounts returns family counts whose trimmed state matches case-insensitively
func (r *CommunityRepository) FamilyCounts(ctx context.Context, state string) ([]*model.FamilyCount, error) {
	query := `
		SELECT city, state, family_count, is_active FROM family_counts
		WHERE string::lowercase(string::trim(state)) = $state
		ORDER BY city
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"state": normalizeState(state),
	})
	if err != nil {
		return nil, err
	}
	return decodeRows[model.FamilyCount](results, 0)
}

// PostTypes returns every community post type
func (r *CommunityRepository) PostTypes(ctx context.Context) ([]*model.PostType, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM post_type ORDER BY id`, nil)
	if err != nil {
		return nil, err
	}
	return decodeRows[model.PostType](results, 0)
}

// CommunityInfo returns community posts whose trimmed state matches case-insensitively
func (r *CommunityRepository) CommunityInfo(ctx context.Context, state string) ([]*model.CommunityInfo, error) {
	query := `
		SELECT * FROM community_info
		WHERE string::lowercase(string::trim(state)) = $state
		ORDER BY created_at DESC
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"state": normalizeState(state),
	})
	if err != nil {
		return nil, err
	}
	return decodeRows[model.CommunityInfo](results, 0)
}

// CreateCommunityInfo inserts a community post
func (r *CommunityRepository) CreateCommunityInfo(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error) {
	vars := map[string]interface{}{
		"state":        req.State,
		"title":        req.Title,
		"description":  req.Description,
		"url":          req.URL,
		"email":        req.Email,
		"post_type_id": req.PostTypeID,
	}
	createdAt := "time::now()"
	if req.CreatedAt != nil {
		createdAt = "<datetime>$created_at"
		vars["created_at"] = req.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	query := `
		CREATE community_info CONTENT {
			state: $state,
			title: $title,
			description: $description,
			url: $url,
			email: $email,
			post_type_id: $post_type_id,
			created_at: ` + createdAt + `
		} RETURN AFTER
	`
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	posts, err := decodeRows[model.CommunityInfo](results, 0)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: create community info returned no record", database.ErrQuery)
	}
	return posts[0], nil
}

// CreateDeviceInfo records a visitor's device
func (r *CommunityRepository) CreateDeviceInfo(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error) {
	query := `
		CREATE user_device_info CONTENT {
			ip_uuid: $ip_uuid,
			device: $device,
			os: $os,
			browser: $browser,
			engine: $engine,
			cpu: $cpu,
			app_version: $app_version,
			created_at: time::now()
		} RETURN AFTER
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"ip_uuid":     req.IPUUID,
		"device":      req.Device,
		"os":          req.OS,
		"browser":     req.Browser,
		"engine":      req.Engine,
		"cpu":         req.CPU,
		"app_version": req.AppVersion,
	})
	if err != nil {
		return nil, err
	}
	devices, err := decodeRows[model.UserDeviceInfo](results, 0)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: create device info returned no record", database.ErrQuery)
	}
	return devices[0], nil
}

// FamilyNumberExists reports whether uuid_ip already submitted a family number
func (r *CommunityRepository) FamilyNumberExists(ctx context.Context, uuidIP string) (bool, error) {
	query := `SELECT id FROM family_number_submitted WHERE uuid_ip = $uuid_ip LIMIT 1`
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{"uuid_ip": uuidIP})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SubmitFamilyNumber stores a family number submission.
// Returns database.ErrDuplicate when uuid_ip already submitted.
func (r *CommunityRepository) SubmitFamilyNumber(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmitted, error) {
	query := `
		CREATE family_number_submitted CONTENT {
			uuid_ip: $uuid_ip,
			state: $state,
			city: $city,
			family_number: $family_number,
			is_verified: $is_verified,
			created_at: time::now()
		} RETURN AFTER
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"uuid_ip":       req.UUIDIP,
		"state":         req.State,
		"city":          req.City,
		"family_number": req.FamilyNumber,
		"is_verified":   req.IsVerified,
	})
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[model.FamilyNumberSubmitted](results, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: submit family number returned no record", database.ErrQuery)
	}
	return rows[0], nil
}

// CityStates returns the whole city lookup table
func (r *CommunityRepository) CityStates(ctx context.Context) ([]model.CityState, error) {
	results, err := r.db.Query(ctx, `SELECT id, city, state_abbr FROM city_state ORDER BY city`, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[model.CityState](results, 0)
	if err != nil {
		return nil, err
	}

	out := make([]model.CityState, 0, len(rows))
	for _, row := range rows {
		c := *row
		c.CityState = c.Label()
		out = append(out, c)
	}
	return out, nil
}

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}
