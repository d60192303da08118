package models

// Subject categories offered by the contact form.
const (
	SubjectJobOpportunity        = "job-opportunity"
	SubjectFreelanceProject      = "freelance-project"
	SubjectTechnicalConsultation = "technical-consultation"
	SubjectPartnership           = "partnership"
	SubjectGeneralInquiry        = "general-inquiry"
)

// SubjectInfo carries the presentation details notifications use for a subject.
type SubjectInfo struct {
	Label    string
	Tags     string // ntfy emoji tags
	Priority int    // ntfy priority, 1..5
	Color    string // email badge colour
	Icon     string
}

var subjects = map[string]SubjectInfo{
	SubjectJobOpportunity:        {Label: "Job Opportunity", Tags: "briefcase,moneybag", Priority: 5, Color: "#10b981", Icon: "💼"},
	SubjectFreelanceProject:      {Label: "Freelance Project", Tags: "rocket", Priority: 3, Color: "#8b5cf6", Icon: "🚀"},
	SubjectTechnicalConsultation: {Label: "Technical Consultation", Tags: "bulb", Priority: 3, Color: "#f59e0b", Icon: "💡"},
	SubjectPartnership:           {Label: "Partnership", Tags: "handshake", Priority: 3, Color: "#3b82f6", Icon: "🤝"},
	SubjectGeneralInquiry:        {Label: "General Inquiry", Tags: "envelope", Priority: 3, Color: "#6b7280", Icon: "📩"},
}

// LookupSubject returns the details for a subject key and whether it is known.
func LookupSubject(key string) (SubjectInfo, bool) {
	info, ok := subjects[key]
	return info, ok
}

// Subject returns the details for a subject key, falling back to a generic
// "Message" entry styled like a general inquiry.
func Subject(key string) SubjectInfo {
	if info, ok := subjects[key]; ok {
		return info
	}
	fallback := subjects[SubjectGeneralInquiry]
	fallback.Label = "Message"

	return fallback
}
