package normalize

// ExporterRecord is the stable projection of an exporter object.
type ExporterRecord struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Status string            `json:"status"`
	Online bool              `json:"online"`
}

// LeaseRecord is the stable projection of a lease object.
type LeaseRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

// LeaseCreationResult is the stable projection of a lease-creation response,
// plus best-effort extras copied through verbatim when the controller
// supplies them.
type LeaseCreationResult struct {
	LeaseID         string `json:"lease_id"`
	Selector        string `json:"selector"`
	LeaseName       string `json:"lease_name"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	ExpiresAt       string `json:"expires_at"`
	State           string `json:"state,omitempty"`
	ExporterName    string `json:"exporter_name,omitempty"`
}

const unknown = "unknown"

var (
	exporterNameCandidates   = []string{"name", "id", "identifier"}
	exporterLabelsCandidates = []string{"labels", "metadata", "tags"}
	statusCandidates         = []string{"status", "state", "phase"}
	onlineCandidates         = []string{"online", "available", "is_online"}

	leaseIDCandidates     = []string{"id", "lease_id", "identifier", "uid"}
	leaseNameCandidates   = []string{"name", "lease_name", "title"}
	leaseExpiryCandidates = []string{"expires_at", "expiry", "expiration", "expires", "end_time", "endTime"}
	leaseBeginCandidates  = []string{"created_at", "begin_time", "beginTime", "start_time"}
)

// NormalizeExporter projects an exporter object of unknown shape into an
// ExporterRecord. Missing fields take the documented defaults; an object
// exposing no name field at all falls back to its own string representation.
func NormalizeExporter(obj any) ExporterRecord {
	rec := ExporterRecord{
		Name:   unknown,
		Labels: map[string]string{},
		Status: unknown,
	}

	if v, ok := resolveText(obj, exporterNameCandidates); ok {
		rec.Name = v
	} else if s, ok := stringRepresentation(obj); ok {
		rec.Name = s
	}

	if v := ResolveField(obj, exporterLabelsCandidates, nil); v != nil {
		rec.Labels = coerceStringMap(v)
	}

	if v, ok := resolveText(obj, statusCandidates); ok {
		rec.Status = v
	}

	rec.Online = coerceBool(ResolveField(obj, onlineCandidates, nil))

	return rec
}

// NormalizeLease projects a lease object of unknown shape into a LeaseRecord.
// The expiry is coerced to text; an absent or empty expiry reads "unknown"
// (a legitimate zero expiry is indistinguishable from an absent one once the
// object has round-tripped through a loose encoding, so both degrade).
func NormalizeLease(obj any) LeaseRecord {
	rec := LeaseRecord{
		ID:        unknown,
		Name:      unknown,
		Status:    unknown,
		ExpiresAt: unknown,
	}

	if v, ok := resolveText(obj, leaseIDCandidates); ok {
		rec.ID = v
	} else if s, ok := stringRepresentation(obj); ok {
		rec.ID = s
	}

	if v, ok := resolveText(obj, leaseNameCandidates); ok {
		rec.Name = v
	}
	if v, ok := resolveText(obj, statusCandidates); ok {
		rec.Status = v
	}
	if v, ok := resolveText(obj, leaseExpiryCandidates); ok {
		rec.ExpiresAt = v
	}

	return rec
}

// NormalizeLeaseCreation projects a lease-creation response. Selector,
// requested name, and duration are echoed from the request; the remaining
// fields come from the response object with the usual defaulting. State and
// exporter name are copied through only when present.
func NormalizeLeaseCreation(obj any, selector, leaseName string, durationMinutes int) LeaseCreationResult {
	rec := LeaseCreationResult{
		LeaseID:         unknown,
		Selector:        selector,
		LeaseName:       leaseName,
		DurationMinutes: durationMinutes,
		Status:          unknown,
		CreatedAt:       unknown,
		ExpiresAt:       unknown,
	}

	if v, ok := resolveText(obj, leaseIDCandidates); ok {
		rec.LeaseID = v
	}
	if rec.LeaseName == "" {
		rec.LeaseName = unknown
		if v, ok := resolveText(obj, leaseNameCandidates); ok {
			rec.LeaseName = v
		}
	}
	if v, ok := resolveText(obj, statusCandidates); ok {
		rec.Status = v
	}
	if v, ok := resolveText(obj, leaseBeginCandidates); ok {
		rec.CreatedAt = v
	}
	if v, ok := resolveText(obj, leaseExpiryCandidates); ok {
		rec.ExpiresAt = v
	}

	if v, ok := resolveText(obj, []string{"state"}); ok {
		rec.State = v
	}
	if v, ok := resolveText(obj, []string{"exporter_name", "exporter"}); ok {
		rec.ExporterName = v
	}

	return rec
}
