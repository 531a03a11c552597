package models

// FormPresets is the dropdown content and prefilled text of the meeting form.
type FormPresets struct {
	Companies        []string `json:"companies" yaml:"companies"`
	Addresses        []string `json:"addresses" yaml:"addresses"`
	MeetingTypes     []string `json:"meetingTypes" yaml:"meetingTypes"`
	TimeSlots        []string `json:"timeSlots" yaml:"timeSlots"`
	ChairmanName     string   `json:"chairmanName" yaml:"chairmanName"`
	DiscussionTopics string   `json:"discussionTopics" yaml:"discussionTopics"`
	ClosingRemarks   string   `json:"closingRemarks" yaml:"closingRemarks"`
}

func DefaultFormPresets() FormPresets {
	return FormPresets{
		Companies: []string{"Ryan Kyle", "imnotrk", "6AMG", "Aqua Fish Villa", "TL Pet Shop"},
		Addresses: []string{
			"Sample address 1, State US 12345",
			"Sample address 2, State US 12345",
			"Sample address 3, State US 12345",
		},
		MeetingTypes:     []string{"Annual Board Meeting", "Special Board Meeting"},
		TimeSlots:        []string{"10:00 AM", "10:30 AM", "11:00 AM", "12:00 PM"},
		ChairmanName:     "Ryan Kyle Ocampo",
		DiscussionTopics: "Discuss business conditions and plans.",
		ClosingRemarks:   "The topics were discussed and covered. The meeting was adjourned.",
	}
}

// Choices returns the dropdown entries with the free-text escapes appended,
// the way the form lists them.
func (p FormPresets) Choices() map[string][]string {
	return map[string][]string{
		"companies":    append(append([]string{}, p.Companies...), OtherChoice),
		"addresses":    append(append([]string{}, p.Addresses...), OtherChoice),
		"meetingTypes": append([]string{}, p.MeetingTypes...),
		"timeSlots":    append(append([]string{}, p.TimeSlots...), CustomTimeChoice),
	}
}
