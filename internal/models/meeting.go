package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// OtherChoice is the dropdown entry that switches to free text.
	OtherChoice = "Other..."
	// CustomTimeChoice is the time slot entry that switches to a free time.
	CustomTimeChoice = "Custom Time"

	DateLayout = "2006-01-02"
	// customTimeLayout renders a custom meeting time, e.g. "02:15 pm".
	customTimeLayout = "03:04 pm"
)

// MeetingDetails holds the current value of every form input.
type MeetingDetails struct {
	CompanyName      string    `json:"companyName"`
	CompanyAddress   string    `json:"companyAddress"`
	MeetingAddress   string    `json:"meetingAddress"`
	MeetingType      string    `json:"meetingType"`
	ChairmanName     string    `json:"chairmanName"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	DiscussionTopics string    `json:"discussionTopics"`
	Resolutions      string    `json:"resolutions"`
	ClosingRemarks   string    `json:"closingRemarks"`
	// LogoPath is a filesystem path; empty means no image.
	LogoPath string `json:"logoPath"`
}

// Fields returns the text substitutions in form order. The logo is not part
// of the mapping; read LogoPath instead.
func (d MeetingDetails) Fields() FieldMapping {
	return NewFieldMapping(
		Field{Key: "company_name", Value: d.CompanyName},
		Field{Key: "date", Value: d.Date.Format(DateLayout)},
		Field{Key: "time", Value: d.Time},
		Field{Key: "meeting_address", Value: d.MeetingAddress},
		Field{Key: "chairman_name", Value: d.ChairmanName},
		Field{Key: "year", Value: strconv.Itoa(d.Date.Year())},
		Field{Key: "discussion_topics", Value: d.DiscussionTopics},
		Field{Key: "resolutions", Value: d.Resolutions},
		Field{Key: "closing_remarks", Value: d.ClosingRemarks},
		Field{Key: "closing_time", Value: d.Time},
		Field{Key: "company_address", Value: d.CompanyAddress},
		Field{Key: "meeting_type", Value: d.MeetingType},
	)
}

// Choice is a dropdown value with a free-text escape. It decodes from either
// a plain string or {"selected": ..., "custom": ...}.
type Choice struct {
	Selected string `json:"selected" yaml:"selected"`
	Custom   string `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// Resolve returns Custom when Selected is the escape entry.
func (c Choice) Resolve(escape string) string {
	if c.Selected == escape {
		return c.Custom
	}
	return c.Selected
}

// resolveOr is Resolve with OtherChoice as the escape, using fallback when
// nothing was selected.
func (c Choice) resolveOr(fallback string) string {
	if c.Selected == "" {
		return fallback
	}
	return c.Resolve(OtherChoice)
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Choice{Selected: s}
		return nil
	}
	type plain Choice
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Choice(p)
	return nil
}

func (c *Choice) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*c = Choice{Selected: value.Value}
		return nil
	}
	type plain Choice
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = Choice(p)
	return nil
}

// MeetingForm is the raw form submission before dropdown escapes are resolved.
type MeetingForm struct {
	Company          Choice `json:"company" yaml:"company"`
	CompanyAddress   Choice `json:"companyAddress" yaml:"companyAddress"`
	MeetingAddress   Choice `json:"meetingAddress" yaml:"meetingAddress"`
	MeetingType      string `json:"meetingType" yaml:"meetingType"`
	ChairmanName     string `json:"chairmanName" yaml:"chairmanName"`
	Date             string `json:"date" yaml:"date"`
	Time             Choice `json:"time" yaml:"time"`
	DiscussionTopics string `json:"discussionTopics" yaml:"discussionTopics"`
	Resolutions      string `json:"resolutions" yaml:"resolutions"`
	ClosingRemarks   string `json:"closingRemarks" yaml:"closingRemarks"`
	Logo             string `json:"logo" yaml:"logo"`
}

// Resolve turns the submission into MeetingDetails. Empty inputs fall back to
// the preset defaults the form would have shown; an empty date means today.
func (f MeetingForm) Resolve(presets FormPresets, now time.Time) (MeetingDetails, error) {
	d := MeetingDetails{
		CompanyName:      strings.TrimSpace(f.Company.Resolve(OtherChoice)),
		CompanyAddress:   f.CompanyAddress.resolveOr(first(presets.Addresses)),
		MeetingAddress:   f.MeetingAddress.resolveOr(first(presets.Addresses)),
		MeetingType:      firstNonEmpty(f.MeetingType, first(presets.MeetingTypes)),
		ChairmanName:     firstNonEmpty(f.ChairmanName, presets.ChairmanName),
		DiscussionTopics: firstNonEmpty(f.DiscussionTopics, presets.DiscussionTopics),
		Resolutions:      f.Resolutions,
		ClosingRemarks:   firstNonEmpty(f.ClosingRemarks, presets.ClosingRemarks),
		LogoPath:         f.Logo,
	}

	if f.Date == "" {
		d.Date = now
	} else {
		date, err := time.ParseInLocation(DateLayout, f.Date, now.Location())
		if err != nil {
			return MeetingDetails{}, fmt.Errorf("invalid meeting date %q: %w", f.Date, err)
		}
		d.Date = date
	}

	switch {
	case f.Time.Selected == CustomTimeChoice:
		t, err := parseClock(f.Time.Custom)
		if err != nil {
			return MeetingDetails{}, err
		}
		d.Time = t
	case f.Time.Selected == "":
		d.Time = first(presets.TimeSlots)
	default:
		d.Time = f.Time.Selected
	}

	return d, nil
}

var clockLayouts = []string{"3:04 PM", "03:04 PM", "3:04PM", "3:04 pm", "03:04 pm", "15:04"}

func parseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(customTimeLayout), nil
		}
	}
	return "", fmt.Errorf("invalid custom time %q", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
