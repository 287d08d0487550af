package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/rentwise/api/internal/database"
)

// Document is the YAML layout of a seed file
type Document struct {
	Plans              []Plan        `yaml:"plans"`
	PostTypes          []PostType    `yaml:"post_types"`
	CityStates         []CityState   `yaml:"city_states"`
	TermsAndConditions []Terms       `yaml:"terms_and_conditions"`
	AppVersions        []AppVersion  `yaml:"app_versions"`
	FamilyCounts       []FamilyCount `yaml:"family_counts"`
}

type Plan struct {
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Description  *string  `yaml:"description"`
	Price        *float64 `yaml:"price"`
	BillingCycle *string  `yaml:"billing_cycle"`
}

type PostType struct {
	Key      string `yaml:"key"`
	PostType string `yaml:"post_type"`
	IsActive *bool  `yaml:"is_active"`
}

// CityState rows are keyed by city and state
type CityState struct {
	City      string `yaml:"city"`
	StateAbbr string `yaml:"state_abbr"`
}

type Terms struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

type AppVersion struct {
	Key           string  `yaml:"key"`
	VersionNumber string  `yaml:"version_number"`
	Description   *string `yaml:"description"`
	AndroidURL    *string `yaml:"android_url"`
	IOSURL        *string `yaml:"ios_url"`
	ForceUpdate   *bool   `yaml:"force_update"`
}

// FamilyCount rows are keyed by state and city
type FamilyCount struct {
	City        string `yaml:"city"`
	State       string `yaml:"state"`
	FamilyCount *int   `yaml:"family_count"`
	IsActive    *bool  `yaml:"is_active"`
}

// Record is one row to upsert
type Record struct {
	Table string
	Key   string
	Data  map[string]interface{}
}

// Load reads and parses a seed file
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a seed document and validates it. Unknown keys are rejected.
func Parse(b []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate reports every missing field and duplicate key at once
func (d *Document) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	check := func(section string, i int, key string, required map[string]string) {
		for field, value := range required {
			if strings.TrimSpace(value) == "" {
				errs = append(errs, fmt.Errorf("seed: %s[%d]: %s is required", section, i, field))
			}
		}
		if key == "" {
			return
		}
		id := section + ":" + key
		if seen[id] {
			errs = append(errs, fmt.Errorf("seed: %s[%d]: duplicate key %q", section, i, key))
		}
		seen[id] = true
	}

	for i, p := range d.Plans {
		check("plans", i, p.Key, map[string]string{"key": p.Key, "name": p.Name})
		if p.Price != nil && *p.Price < 0 {
			errs = append(errs, fmt.Errorf("seed: plans[%d]: price must not be negative", i))
		}
	}
	for i, p := range d.PostTypes {
		check("post_types", i, p.Key, map[string]string{"key": p.Key, "post_type": p.PostType})
	}
	for i, c := range d.CityStates {
		check("city_states", i, slug(c.City, c.StateAbbr), map[string]string{"city": c.City, "state_abbr": c.StateAbbr})
	}
	for i, t := range d.TermsAndConditions {
		check("terms_and_conditions", i, t.Key, map[string]string{"key": t.Key, "description": t.Description})
	}
	for i, v := range d.AppVersions {
		check("app_versions", i, v.Key, map[string]string{"key": v.Key, "version_number": v.VersionNumber})
	}
	for i, f := range d.FamilyCounts {
		check("family_counts", i, slug(f.State, f.City), map[string]string{"city": f.City, "state": f.State})
		if f.FamilyCount != nil && *f.FamilyCount < 0 {
			errs = append(errs, fmt.Errorf("seed: family_counts[%d]: family_count must not be negative", i))
		}
	}

	return errors.Join(errs...)
}

// Records flattens the document into upserts, in document section order
func (d *Document) Records() []Record {
	var out []Record
	for _, p := range d.Plans {
		data := map[string]interface{}{"name": p.Name}
		setOpt(data, "description", p.Description)
		setOpt(data, "price", p.Price)
		setOpt(data, "billing_cycle", p.BillingCycle)
		out = append(out, Record{Table: "plan", Key: p.Key, Data: data})
	}
	for _, p := range d.PostTypes {
		data := map[string]interface{}{"post_type": p.PostType}
		setOpt(data, "is_active", p.IsActive)
		out = append(out, Record{Table: "post_type", Key: p.Key, Data: data})
	}
	for _, c := range d.CityStates {
		out = append(out, Record{Table: "city_state", Key: slug(c.City, c.StateAbbr), Data: map[string]interface{}{
			"city":       strings.TrimSpace(c.City),
			"state_abbr": strings.ToUpper(strings.TrimSpace(c.StateAbbr)),
		}})
	}
	for _, t := range d.TermsAndConditions {
		out = append(out, Record{Table: "terms_and_conditions", Key: t.Key, Data: map[string]interface{}{
			"description": t.Description,
		}})
	}
	for _, v := range d.AppVersions {
		data := map[string]interface{}{"version_number": v.VersionNumber}
		setOpt(data, "description", v.Description)
		setOpt(data, "android_url", v.AndroidURL)
		setOpt(data, "ios_url", v.IOSURL)
		setOpt(data, "force_update", v.ForceUpdate)
		out = append(out, Record{Table: "app_minimum_version", Key: v.Key, Data: data})
	}
	for _, f := range d.FamilyCounts {
		data := map[string]interface{}{
			"city":  strings.TrimSpace(f.City),
			"state": strings.TrimSpace(f.State),
		}
		setOpt(data, "family_count", f.FamilyCount)
		setOpt(data, "is_active", f.IsActive)
		out = append(out, Record{Table: "family_counts", Key: slug(f.State, f.City), Data: data})
	}
	return out
}

// Apply upserts every record in one transaction and returns per-table counts.
// Re-applying the same document leaves the data unchanged.
func Apply(ctx context.Context, db database.Database, doc *Document) (map[string]int, error) {
	records := doc.Records()
	counts := make(map[string]int)
	if len(records) == 0 {
		return counts, nil
	}

	tb := database.NewTxBuilder()
	for _, rec := range records {
		tb.Add("UPSERT type::thing($table, $key) MERGE $data", map[string]interface{}{
			"table": rec.Table,
			"key":   rec.Key,
			"data":  rec.Data,
		})
		counts[rec.Table]++
	}

	if _, err := database.ExecuteTransaction(ctx, db, tb); err != nil {
		return nil, fmt.Errorf("seed: apply: %w", err)
	}
	return counts, nil
}

func setOpt[T any](data map[string]interface{}, key string, v *T) {
	if v != nil {
		data[key] = *v
	}
}

// slug joins parts into a lowercase record key of letters, digits and underscores
func slug(parts ...string) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteByte('_')
		}
		for _, r := range strings.ToLower(strings.TrimSpace(part)) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				sb.WriteRune(r)
			} else {
				sb.WriteByte('_')
			}
		}
	}
	if strings.Trim(sb.String(), "_") == "" {
		return ""
	}
	return sb.String()
}
