package support

// Resource is one entry of the mental-health resource directory.
type Resource struct {
	Name        string `json:"name"`
	Contact     string `json:"contact,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
	Available   string `json:"available,omitempty"`
	Type        string `json:"type,omitempty"`
}

type ResourceDirectory struct {
	Crisis        []Resource `json:"crisis"`
	Therapy       []Resource `json:"therapy"`
	SupportGroups []Resource `json:"supportGroups"`
}

func Resources() ResourceDirectory {
	return ResourceDirectory{
		Crisis: []Resource{
			{Name: "988 Suicide & Crisis Lifeline", Contact: HotlineSuicide, Description: "24/7 crisis support and suicide prevention", Available: "24/7", Type: "phone"},
			{Name: "Crisis Text Line", Contact: "Text HOME to " + HotlineCrisis, Description: "Text-based crisis support", Available: "24/7", Type: "text"},
			{Name: "National Domestic Violence Hotline", Contact: HotlineDomestic, Description: "Confidential support for people experiencing abuse", Available: "24/7", Type: "phone"},
			{Name: "Emergency Services", Contact: "911", Description: "Immediate emergency help", Available: "24/7", Type: "phone"},
		},
		Therapy: []Resource{
			{Name: "Psychology Today", URL: "https://www.psychologytoday.com/us/therapists", Description: "Find local therapists by location and specialization"},
			{Name: "BetterHelp", URL: "https://www.betterhelp.com", Description: "Online therapy platform with licensed therapists"},
			{Name: "Talkspace", URL: "https://www.talkspace.com", Description: "Online therapy and psychiatry services"},
		},
		SupportGroups: []Resource{
			{Name: "NAMI Support Groups", URL: "https://www.nami.org/Support-Education/Support-Groups", Description: "Mental health support groups nationwide"},
			{Name: "Depression and Bipolar Support Alliance", URL: "https://www.dbsalliance.org/support/", Description: "Support groups for mood disorders"},
		},
	}
}
