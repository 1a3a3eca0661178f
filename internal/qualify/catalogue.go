package qualify

// Flag keys as they appear in the JSON payload.
const (
	KeyMVPDevelopment = "mvpDevelopment"
	KeyLandingPage    = "landingPage"
	KeySalesFunnel    = "salesFunnel"
	KeyOther          = "other"
)

// DefaultTimeline is preselected on a fresh form.
const DefaultTimeline = "ASAP"

// Service is one entry of the service-interest catalogue.
type Service struct {
	Key   string
	Label string
}

var catalogue = []Service{
	{Key: KeyMVPDevelopment, Label: "MVP Development"},
	{Key: KeyLandingPage, Label: "Landing Page Creation"},
	{Key: KeySalesFunnel, Label: "Sales Funnel Design"},
	{Key: KeyOther, Label: "Other"},
}

// Services returns the catalogue in display order. The slice is a copy.
func Services() []Service {
	out := make([]Service, len(catalogue))
	copy(out, catalogue)
	return out
}

// Label maps a flag key to its display label. Unknown keys come back as-is.
func Label(key string) string {
	for _, svc := range catalogue {
		if svc.Key == key {
			return svc.Label
		}
	}
	return key
}

// TimelineOptions lists the choices offered by the timeline select.
func TimelineOptions() []string {
	return []string{DefaultTimeline, "1-3 months", "3-6 months", "Flexible"}
}

// HeardFromOptions lists the choices offered by the referral select.
func HeardFromOptions() []string {
	return []string{"Google", "Reddit", "Referral", "Other"}
}
