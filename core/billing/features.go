package billing

// Feature is one of the closed set of gated capabilities.
type Feature string

const (
	FeatureAttendance       Feature = "attendance"
	FeatureFeeManagement    Feature = "fee_management"
	FeatureAIAssistant      Feature = "ai_assistant"
	FeatureHostelManagement Feature = "hostel_management"
	FeatureHelpdesk         Feature = "helpdesk"
	FeatureBulkMessaging    Feature = "bulk_messaging"
	FeatureAdvancedReports  Feature = "advanced_reports"
	FeatureAPIAccess        Feature = "api_access"
)

// FeatureInfo carries a gated capability's display metadata and the
// minimum tier required to unlock it.
type FeatureInfo struct {
	Feature     Feature `json:"feature"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinTier     Tier    `json:"min_tier"`
}

// Features holds metadata for every gated capability.
var Features = map[Feature]FeatureInfo{
	FeatureAttendance: {
		Feature:     FeatureAttendance,
		Name:        "Attendance",
		Description: "Daily attendance registers for students and staff",
		MinTier:     TierBasic,
	},
	FeatureFeeManagement: {
		Feature:     FeatureFeeManagement,
		Name:        "Fee Management",
		Description: "Fee structures, invoices and payment tracking",
		MinTier:     TierBasic,
	},
	FeatureAIAssistant: {
		Feature:     FeatureAIAssistant,
		Name:        "AI Assistant",
		Description: "Metered AI queries for staff and students",
		MinTier:     TierBasic,
	},
	FeatureHostelManagement: {
		Feature:     FeatureHostelManagement,
		Name:        "Hostel Management",
		Description: "Hostel blocks, rooms and allocations",
		MinTier:     TierPro,
	},
	FeatureHelpdesk: {
		Feature:     FeatureHelpdesk,
		Name:        "Helpdesk",
		Description: "Ticketing for parents, students and staff",
		MinTier:     TierPro,
	},
	FeatureBulkMessaging: {
		Feature:     FeatureBulkMessaging,
		Name:        "Bulk Messaging",
		Description: "Broadcast email and SMS to whole classes or the school",
		MinTier:     TierPro,
	},
	FeatureAdvancedReports: {
		Feature:     FeatureAdvancedReports,
		Name:        "Advanced Reports",
		Description: "Cross-term analytics and exportable reports",
		MinTier:     TierMax,
	},
	FeatureAPIAccess: {
		Feature:     FeatureAPIAccess,
		Name:        "API Access",
		Description: "Programmatic access to tenant data",
		MinTier:     TierMax,
	},
}

func (f Feature) Valid() bool {
	_, ok := Features[f]
	return ok
}

// AllFeatures returns every gated capability's metadata, ordered by
// minimum tier then name.
func AllFeatures() []FeatureInfo {
	all := make([]FeatureInfo, 0, len(Features))
	for _, tier := range TierOrder {
		for _, feat := range plans[TierMax].Features {
			if info := Features[feat]; info.MinTier == tier {
				all = append(all, info)
			}
		}
	}
	return all
}
